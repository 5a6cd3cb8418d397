// Package capabilities declares the behavioral contracts for the built-in
// capability set. Each contract names the operations, their input and output
// fields, and the declared error kinds, plus the conformance fixtures shared
// by every provider of the capability. Contracts are data; nothing here
// talks to a vendor.
package capabilities

import (
	"github.com/goliatone/go-capability/core"
)

// ContractVersion is the current version of every built-in contract. A
// breaking change to any operation shape bumps the version for that
// capability independently; they start aligned.
const ContractVersion = 1

func Auth() core.ContractDescriptor {
	return core.ContractDescriptor{
		Capability: core.CapabilityAuth,
		Version:    ContractVersion,
		Operations: map[string]core.OperationSpec{
			"issue_token": {
				Name:       "issue_token",
				Input:      []string{"subject", "scopes"},
				Output:     []string{"token", "expires_at"},
				ErrorKinds: []string{"subject_unknown", "scope_denied"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{
						"subject": "user-1",
						"scopes":  []string{"profile:read"},
					},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"subject": "", "scopes": []string{"profile:read"}}, Kind: "subject_unknown"},
						{Input: map[string]any{"subject": "user-1", "scopes": []string{"admin:root"}}, Kind: "scope_denied"},
					},
				},
			},
			"verify_token": {
				Name:       "verify_token",
				Input:      []string{"token"},
				Output:     []string{"subject", "scopes", "valid"},
				ErrorKinds: []string{"token_expired", "token_invalid"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{"token": "tok-valid"},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"token": "tok-expired"}, Kind: "token_expired"},
						{Input: map[string]any{"token": ""}, Kind: "token_invalid"},
					},
				},
			},
			"revoke_token": {
				Name:       "revoke_token",
				Input:      []string{"token"},
				Output:     []string{"revoked"},
				ErrorKinds: []string{"token_invalid"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{"token": "tok-valid"},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"token": ""}, Kind: "token_invalid"},
					},
				},
			},
		},
	}
}

func Payments() core.ContractDescriptor {
	return core.ContractDescriptor{
		Capability: core.CapabilityPayments,
		Version:    ContractVersion,
		Operations: map[string]core.OperationSpec{
			"charge": {
				Name:       "charge",
				Input:      []string{"amount_cents", "currency", "source"},
				Output:     []string{"charge_id", "status"},
				ErrorKinds: []string{"card_declined", "currency_unsupported"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{
						"amount_cents": 1200,
						"currency":     "usd",
						"source":       "card-ok",
					},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"amount_cents": 1200, "currency": "usd", "source": "card-declined"}, Kind: "card_declined"},
						{Input: map[string]any{"amount_cents": 1200, "currency": "xxx", "source": "card-ok"}, Kind: "currency_unsupported"},
					},
				},
			},
			"refund": {
				Name:       "refund",
				Input:      []string{"charge_id", "amount_cents"},
				Output:     []string{"refund_id", "status"},
				ErrorKinds: []string{"charge_not_found", "already_refunded"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{"charge_id": "ch-ok", "amount_cents": 1200},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"charge_id": "ch-missing", "amount_cents": 1200}, Kind: "charge_not_found"},
						{Input: map[string]any{"charge_id": "ch-refunded", "amount_cents": 1200}, Kind: "already_refunded"},
					},
				},
			},
		},
	}
}

func Notifications() core.ContractDescriptor {
	return core.ContractDescriptor{
		Capability: core.CapabilityNotifications,
		Version:    ContractVersion,
		Operations: map[string]core.OperationSpec{
			"send": {
				Name:       "send",
				Input:      []string{"channel", "recipient", "template", "data"},
				Output:     []string{"message_id", "status"},
				ErrorKinds: []string{"recipient_invalid", "template_unknown"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{
						"channel":   "email",
						"recipient": "user@example.com",
						"template":  "welcome",
						"data":      map[string]any{"name": "Ada"},
					},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"channel": "email", "recipient": "", "template": "welcome"}, Kind: "recipient_invalid"},
						{Input: map[string]any{"channel": "email", "recipient": "user@example.com", "template": "missing"}, Kind: "template_unknown"},
					},
				},
			},
		},
	}
}

func Storage() core.ContractDescriptor {
	return core.ContractDescriptor{
		Capability: core.CapabilityStorage,
		Version:    ContractVersion,
		Operations: map[string]core.OperationSpec{
			"put": {
				Name:       "put",
				Input:      []string{"key", "content", "content_type"},
				Output:     []string{"key", "etag"},
				ErrorKinds: []string{"key_invalid"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{
						"key":          "reports/q3.pdf",
						"content":      "cGRmLWJ5dGVz",
						"content_type": "application/pdf",
					},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"key": "", "content": "cGRmLWJ5dGVz"}, Kind: "key_invalid"},
					},
				},
			},
			"get": {
				Name:       "get",
				Input:      []string{"key"},
				Output:     []string{"content", "content_type", "etag"},
				ErrorKinds: []string{"key_invalid", "object_not_found"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{"key": "reports/q3.pdf"},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"key": ""}, Kind: "key_invalid"},
						{Input: map[string]any{"key": "reports/missing.pdf"}, Kind: "object_not_found"},
					},
				},
			},
			"delete": {
				Name:       "delete",
				Input:      []string{"key"},
				Output:     []string{"deleted"},
				ErrorKinds: []string{"key_invalid"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{"key": "reports/q3.pdf"},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"key": ""}, Kind: "key_invalid"},
					},
				},
			},
		},
	}
}

func Search() core.ContractDescriptor {
	return core.ContractDescriptor{
		Capability: core.CapabilitySearch,
		Version:    ContractVersion,
		Operations: map[string]core.OperationSpec{
			"index": {
				Name:       "index",
				Input:      []string{"collection", "id", "document"},
				Output:     []string{"indexed"},
				ErrorKinds: []string{"collection_unknown", "document_invalid"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{
						"collection": "products",
						"id":         "sku-1",
						"document":   map[string]any{"title": "Widget"},
					},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"collection": "missing", "id": "sku-1"}, Kind: "collection_unknown"},
						{Input: map[string]any{"collection": "products", "id": ""}, Kind: "document_invalid"},
					},
				},
			},
			"query": {
				Name:       "query",
				Input:      []string{"collection", "query", "limit"},
				Output:     []string{"hits", "total"},
				ErrorKinds: []string{"collection_unknown", "query_invalid"},
				Fixture: core.OperationFixture{
					ValidInput: map[string]any{
						"collection": "products",
						"query":      "widget",
						"limit":      10,
					},
					Faults: []core.FaultFixture{
						{Input: map[string]any{"collection": "missing", "query": "widget"}, Kind: "collection_unknown"},
						{Input: map[string]any{"collection": "products", "query": ""}, Kind: "query_invalid"},
					},
				},
			},
		},
	}
}

// Contract returns the built-in contract for the given capability.
func Contract(capability core.Capability) (core.ContractDescriptor, bool) {
	contract, ok := Contracts()[capability]
	return contract, ok
}

// Contracts returns the full built-in contract set, keyed by capability. The
// map is freshly built on each call; callers may mutate their copy.
func Contracts() map[core.Capability]core.ContractDescriptor {
	return map[core.Capability]core.ContractDescriptor{
		core.CapabilityAuth:          Auth(),
		core.CapabilityPayments:      Payments(),
		core.CapabilityNotifications: Notifications(),
		core.CapabilityStorage:       Storage(),
		core.CapabilitySearch:        Search(),
	}
}
