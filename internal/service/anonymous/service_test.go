package anonymous

import "testing"

func TestIssueProducesValidIDs(t *testing.T) {
	svc := New()
	a, b := svc.Issue(), svc.Issue()
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if !svc.Valid(a) || !svc.Valid(b) {
		t.Fatalf("issued ids must validate: %s %s", a, b)
	}
}

func TestValidRejectsForeignValues(t *testing.T) {
	svc := New()
	for _, id := range []string{
		"",
		"session",
		"../../etc/passwd",
		"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}",
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"urn:uuid:6ba7b810-9dad-41d1-80b4-00c04fd430c8",
	} {
		if svc.Valid(id) {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}
