package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil collection service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Documents: &mockDocumentService{}}, "test")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingCollectionService)
	})

	t.Run("nil ports returns error", func(t *testing.T) {
		_, err := NewServer(nil, "test")
		assert.ErrorIs(t, err, ErrMissingCollectionService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(basePorts(), "test")
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil document service returns error", func(t *testing.T) {
		ports := &Ports{Collections: &mockCollectionService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
	})

	t.Run("required ports only is valid", func(t *testing.T) {
		assert.NoError(t, basePorts().Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := basePorts()
		ports.Jobs = &mockJobService{}
		ports.Health = &mockHealthService{}
		ports.Session = &stateOnlySession{state: domain.Absent()}
		assert.NoError(t, ports.Validate())
	})
}

// connect starts the server on in-memory transports and returns a client session.
func connect(t *testing.T, ports *Ports) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server, err := NewServer(ports, "test")
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestServer_RegistersTools(t *testing.T) {
	t.Run("required ports", func(t *testing.T) {
		session := connect(t, basePorts())
		assert.ElementsMatch(t,
			[]string{"list_collections", "create_collection", "submit_document", "get_document"},
			toolNames(t, session))
	})

	t.Run("optional ports add tools", func(t *testing.T) {
		ports := basePorts()
		ports.Jobs = &mockJobService{}
		ports.Health = &mockHealthService{status: "ok"}
		session := connect(t, ports)
		assert.Subset(t, toolNames(t, session), []string{"get_job", "backend_health"})
	})
}

func TestServer_CallToolOverTransport(t *testing.T) {
	ports := basePorts()
	ports.Collections = &mockCollectionService{
		collections: []domain.Collection{{ID: "col-1", Name: "Product docs"}},
	}
	session := connect(t, ports)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_collections",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Product docs")
}

func TestServer_ToolErrorsAreReported(t *testing.T) {
	ports := basePorts()
	ports.Collections = &mockCollectionService{err: domain.ErrNotSignedIn}
	session := connect(t, ports)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_collections",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "ragdesk login")
}

func TestServer_ReportsVersionAndInstructions(t *testing.T) {
	session := connect(t, basePorts())

	res := session.InitializeResult()
	require.NotNil(t, res)
	require.NotNil(t, res.ServerInfo)
	assert.Equal(t, "ragdesk", res.ServerInfo.Name)
	assert.Equal(t, "test", res.ServerInfo.Version)
	assert.Contains(t, res.Instructions, "get_job")
}

func TestNewServer_DefaultVersion(t *testing.T) {
	server, err := NewServer(basePorts(), "")
	require.NoError(t, err)
	assert.NotNil(t, server.Handler())
}

func TestServer_RunHTTP_StopsOnCancel(t *testing.T) {
	server, err := NewServer(basePorts(), "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, server.RunHTTP(ctx, "127.0.0.1:0"))
}
