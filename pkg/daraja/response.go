package daraja

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// STKPushResult is the synchronous initiation outcome. CheckoutRequestID is
// the correlation id every later status report carries.
type STKPushResult struct {
	CheckoutRequestID string
	MerchantRequestID string
}

// STKQueryResult is a normalized status-query outcome. A nil ResultCode means
// the gateway has not produced a final result yet.
type STKQueryResult struct {
	ResultCode *string
	ResultDesc string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

type stkQueryResponse struct {
	ResultCode   json.Number `json:"ResultCode"`
	ResultDesc   string      `json:"ResultDesc"`
	ResponseCode string      `json:"ResponseCode"`
	ErrorCode    string      `json:"errorCode"`
	ErrorMessage string      `json:"errorMessage"`
}

// Callback is the normalized asynchronous payment notification.
type Callback struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        *string
	ResultDesc        string
	Amount            *int64
	Phone             string
	Receipt           string
}

type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string       `json:"MerchantRequestID"`
			CheckoutRequestID string       `json:"CheckoutRequestID"`
			ResultCode        *json.Number `json:"ResultCode"`
			ResultDesc        string       `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string          `json:"Name"`
					Value json.RawMessage `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback decodes a gateway callback payload into its normalized form.
func ParseCallback(payload []byte) (*Callback, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("daraja: malformed callback: %w", err)
	}

	body := envelope.Body.StkCallback
	if body.CheckoutRequestID == "" {
		return nil, fmt.Errorf("daraja: callback missing CheckoutRequestID")
	}

	cb := &Callback{
		MerchantRequestID: body.MerchantRequestID,
		CheckoutRequestID: body.CheckoutRequestID,
		ResultDesc:        body.ResultDesc,
	}
	if body.ResultCode != nil {
		code := body.ResultCode.String()
		cb.ResultCode = &code
	}

	for _, item := range body.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if amount, ok := decodeAmount(item.Value); ok {
				cb.Amount = &amount
			}
		case "PhoneNumber":
			cb.Phone = decodeString(item.Value)
		case "MpesaReceiptNumber":
			cb.Receipt = decodeString(item.Value)
		}
	}

	return cb, nil
}

func decodeAmount(raw json.RawMessage) (int64, bool) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if parsed, err := num.Float64(); err == nil {
			return int64(parsed), true
		}
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if parsed, err := strconv.ParseFloat(str, 64); err == nil {
			return int64(parsed), true
		}
	}
	return 0, false
}

func decodeString(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}
