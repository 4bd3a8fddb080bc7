package esewa

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// ErrPayloadInvalid tags every way the callback blob can be malformed:
// bad base64, bad JSON, or a missing required field. The payload is
// hostile input; partial processing is never attempted.
var ErrPayloadInvalid = fmt.Errorf("esewa: invalid callback payload")

// CallbackPayload is the decoded ?data= blob the gateway redirects back
// with. It is untrusted until the signature verifies.
type CallbackPayload struct {
	Status           string
	TransactionCode  string
	TotalAmount      string
	TransactionUUID  string
	ProductCode      string
	SignedFieldNames string
	Signature        string
	RefundAmount     string
}

var requiredFields = []string{
	"status",
	"transaction_code",
	"total_amount",
	"transaction_uuid",
	"product_code",
	"signed_field_names",
}

// DecodeCallback decodes the base64-encoded JSON object eSewa sends
// back and checks that every required field is present. It does not
// interpret status; that is the payment service's job.
func DecodeCallback(raw string) (CallbackPayload, error) {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return CallbackPayload{}, fmt.Errorf("%w: not base64", ErrPayloadInvalid)
	}

	// total_amount arrives sometimes as a JSON string, sometimes as a
	// number; decode to a generic map and stringify per field.
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return CallbackPayload{}, fmt.Errorf("%w: not a JSON object", ErrPayloadInvalid)
	}

	for _, name := range requiredFields {
		if asString(m[name]) == "" {
			return CallbackPayload{}, fmt.Errorf("%w: missing %s", ErrPayloadInvalid, name)
		}
	}

	return CallbackPayload{
		Status:           asString(m["status"]),
		TransactionCode:  asString(m["transaction_code"]),
		TotalAmount:      asString(m["total_amount"]),
		TransactionUUID:  asString(m["transaction_uuid"]),
		ProductCode:      asString(m["product_code"]),
		SignedFieldNames: asString(m["signed_field_names"]),
		Signature:        asString(m["signature"]),
		RefundAmount:     asString(m["refund_amount"]),
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// integral amounts render as "500", not "500.000000"
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
