package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// backend pairs the API client with the token provider every
// authenticated resource operation borrows from.
type backend struct {
	api    driven.APIClient
	tokens driven.TokenProvider
}

// call borrows a token and performs one authenticated request.
func (b backend) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := b.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return b.api.Request(ctx, path, driven.RequestOptions{
		Method: method,
		Body:   body,
		Token:  token,
	})
}

// decodeInto decodes a success payload. A body that does not fit the
// expected shape is a contract violation, not a transport failure.
func decodeInto(raw json.RawMessage, v any, what string) error {
	if len(raw) == 0 {
		return domain.NewContractError(fmt.Sprintf("empty %s response", what))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.NewContractError(fmt.Sprintf("unexpected %s response: %v", what, err))
	}
	return nil
}
