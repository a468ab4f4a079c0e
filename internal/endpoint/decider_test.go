package endpoint

import (
	"context"
	"fmt"
	"testing"
)

type fakeResolver struct {
	fail map[string]bool
}

func (f *fakeResolver) Resolve(_ context.Context, e Endpoint) ([]ServiceEndpoint, error) {
	if f.fail[e.Host] {
		return nil, fmt.Errorf("no such host %q", e.Host)
	}
	return []ServiceEndpoint{{Network: "tcp4", Address: fmt.Sprintf("10.0.0.1:%d", e.Port), Hostname: e.Host}}, nil
}

func TestDeciderRoundRobin(t *testing.T) {
	members := Members{{Host: "a", Port: 1}, {Host: "b", Port: 2}, {Host: "c", Port: 3}}
	d := NewDecider(members, &fakeResolver{}, nil)

	var got []string
	for i := 0; i < 6; i++ {
		se, ok := d.GetNextEndpoint(context.Background())
		if !ok {
			t.Fatalf("iteration %d: expected an endpoint", i)
		}
		got = append(got, se.Hostname)
	}
	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDeciderRedirectionTakesPriority(t *testing.T) {
	members := Members{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	d := NewDecider(members, &fakeResolver{}, nil)

	d.RegisterRedirection(Endpoint{Host: "moved-to", Port: 9})
	se, ok := d.GetNextEndpoint(context.Background())
	if !ok || se.Hostname != "moved-to" {
		t.Fatalf("expected redirect target first, got %+v ok=%v", se, ok)
	}

	se, ok = d.GetNextEndpoint(context.Background())
	if !ok || se.Hostname != "a" {
		t.Fatalf("expected round-robin to resume at first member, got %+v", se)
	}
}

func TestDeciderFullCircleOnAllResolutionFailures(t *testing.T) {
	members := Members{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	d := NewDecider(members, &fakeResolver{fail: map[string]bool{"a": true, "b": true}}, nil)

	_, ok := d.GetNextEndpoint(context.Background())
	if ok {
		t.Fatalf("expected resolution to fail for all members")
	}
	if !d.MadeFullCircle() {
		t.Fatalf("expected MadeFullCircle to be true after exhausting all members")
	}
}

func TestDeciderResetAttempts(t *testing.T) {
	members := Members{{Host: "a", Port: 1}}
	d := NewDecider(members, &fakeResolver{}, nil)
	d.GetNextEndpoint(context.Background())
	if !d.MadeFullCircle() {
		t.Fatalf("single-member cluster should reach full circle after one attempt")
	}
	d.ResetAttempts()
	if d.MadeFullCircle() {
		t.Fatalf("ResetAttempts should clear full-circle state")
	}
}
