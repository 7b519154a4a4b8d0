// Package services implements the driving ports.
//
// SessionHolder owns the signed-in session. The resource services ask it
// for a token on every backend call and hold no state of their own.
package services
