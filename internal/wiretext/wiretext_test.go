package wiretext

import "testing"

func TestStrictDictRejectsCaseVariantDuplicates(t *testing.T) {
	_, err := StrictDict([]byte(`{"authid":"alice","AuthID":"mallory"}`))
	if err == nil {
		t.Fatal("expected error for case-variant duplicate keys, got nil")
	}
}

func TestStrictDictAcceptsOrdinaryObject(t *testing.T) {
	got, err := StrictDict([]byte(`{"authid":"alice","authrole":"user"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["authid"] != "alice" || got["authrole"] != "user" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestStrictDictEmpty(t *testing.T) {
	got, err := StrictDict(nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil got %#v, %v", got, err)
	}
}
