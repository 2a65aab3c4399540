package apiclient

import (
	"encoding/json"
	"errors"
	"testing"
)

type item struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func hasID(i *item) bool { return i.ID != "" }

func TestNormalizeTransportFailureReturnsSentinel(t *testing.T) {
	terr := &TransportError{Status: 503, Message: "down", Err: ErrServiceUnavailable}

	list := Normalize(Response{}, terr, []item{}, ListField[item]("items"))
	if list.Kind != KindTransportFailure || list.Value == nil || len(list.Value) != 0 {
		t.Fatalf("unexpected list result: %+v", list)
	}
	if list.Status != 503 || list.Message != "down" {
		t.Fatalf("expected status and message carried, got %+v", list)
	}
	if !errors.Is(list.Err(), ErrServiceUnavailable) {
		t.Fatalf("expected Err to unwrap to ErrServiceUnavailable, got %v", list.Err())
	}

	single := Normalize[*item](Response{}, terr, nil, ObjectField[item]("item"))
	if single.Kind != KindTransportFailure || single.Value != nil {
		t.Fatalf("unexpected single result: %+v", single)
	}
}

func TestNormalizeBusinessErrorKeepsBody(t *testing.T) {
	raw := json.RawMessage(`{"message":"Invalid credentials","errors":[{"field":"password","message":"Password too short"}]}`)
	r := Normalize[*item](Response{Status: 400, Data: raw}, nil, nil, ObjectField[item]("item"))
	if r.Kind != KindBusinessError || r.Value != nil || r.Status != 400 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if string(r.Body.Raw) != string(raw) {
		t.Fatalf("body raw = %s, want %s", r.Body.Raw, raw)
	}
	if r.Body.Text() != "Password too short" {
		t.Fatalf("text = %q", r.Body.Text())
	}
	var be *BusinessError
	if !errors.As(r.Err(), &be) || be.Error() != "Password too short" {
		t.Fatalf("unexpected business error: %v", r.Err())
	}
}

func TestNormalizeBusinessErrorWithoutBody(t *testing.T) {
	r := Normalize[*item](Response{Status: 404}, nil, nil, ObjectField[item]("item"))
	if r.Kind != KindBusinessError || r.Body == nil {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.Err().Error() != "not found" {
		t.Fatalf("err = %q, want %q", r.Err().Error(), "not found")
	}
}

func TestListFieldMissingOrNullIsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"items":null}`, `{"other":[1]}`} {
		r := Normalize(Response{Status: 200, Data: json.RawMessage(body)}, nil, []item{}, ListField[item]("items"))
		if !r.OK() || r.Value == nil || len(r.Value) != 0 {
			t.Fatalf("body %s: unexpected result %+v", body, r)
		}
	}
	r := Normalize(Response{Status: 200}, nil, []item{}, ListField[item]("items"))
	if !r.OK() || r.Value == nil {
		t.Fatalf("empty body: unexpected result %+v", r)
	}
}

func TestListFieldReturnsExactlyTheField(t *testing.T) {
	body := `{"items":[{"_id":"a","name":"A"},{"_id":"b","name":"B"}],"total":2}`
	r := Normalize(Response{Status: 200, Data: json.RawMessage(body)}, nil, []item{}, ListField[item]("items"))
	if !r.OK() || len(r.Value) != 2 || r.Value[0].ID != "a" || r.Value[1].Name != "B" {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestMalformedSuccessBodyIsTransportFailure(t *testing.T) {
	r := Normalize(Response{Status: 200, Data: json.RawMessage(`{"items":"nope"}`)}, nil, []item{}, ListField[item]("items"))
	if r.Kind != KindTransportFailure || len(r.Value) != 0 || r.Value == nil {
		t.Fatalf("unexpected result: %+v", r)
	}
	var te *TransportError
	if !errors.As(r.Err(), &te) || te.Status != 200 {
		t.Fatalf("unexpected error: %v", r.Err())
	}

	r2 := Normalize[*item](Response{Status: 200, Data: json.RawMessage(`[1,2]`)}, nil, nil, ObjectField[item]("item"))
	if r2.Kind != KindTransportFailure {
		t.Fatalf("array body for object field: %+v", r2)
	}
}

func TestObjectFieldMissingIsBusinessError(t *testing.T) {
	r := Normalize[*item](Response{Status: 200, Data: json.RawMessage(`{"message":"gone"}`)}, nil, nil, ObjectField[item]("item"))
	if r.Kind != KindBusinessError || r.Body.Text() != "gone" {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestObjectOrField(t *testing.T) {
	extract := ObjectOrField[item]("item", hasID)

	wrapped := Normalize[*item](Response{Status: 200, Data: json.RawMessage(`{"message":"ok","item":{"_id":"a"}}`)}, nil, nil, extract)
	if !wrapped.OK() || wrapped.Value.ID != "a" {
		t.Fatalf("wrapped: %+v", wrapped)
	}
	bare := Normalize[*item](Response{Status: 201, Data: json.RawMessage(`{"_id":"b"}`)}, nil, nil, extract)
	if !bare.OK() || bare.Value.ID != "b" {
		t.Fatalf("bare: %+v", bare)
	}
	neither := Normalize[*item](Response{Status: 200, Data: json.RawMessage(`{"message":"Already enrolled"}`)}, nil, nil, extract)
	if neither.Kind != KindBusinessError || neither.Body.Text() != "Already enrolled" {
		t.Fatalf("neither: %+v", neither)
	}
}

func TestObjectAcceptsEmptyBody(t *testing.T) {
	r := Normalize[*item](Response{Status: 204}, nil, nil, Object[item](nil))
	if !r.OK() || r.Value == nil {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestKindString(t *testing.T) {
	if KindOK.String() != "ok" || KindBusinessError.String() != "business_error" || KindTransportFailure.String() != "transport_failure" {
		t.Fatalf("unexpected kind names")
	}
}
