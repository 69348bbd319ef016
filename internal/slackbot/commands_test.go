package slackbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/readbot/internal/domain"
	"github.com/MrSnakeDoc/readbot/internal/sources/services"
)

type fakeManager struct {
	connectErr   error
	connected    map[domain.ServiceKind]bool
	connectCalls []domain.ServiceKind
	disconnected []domain.ServiceKind
}

func (f *fakeManager) Connect(_ context.Context, userID string, kind domain.ServiceKind) (string, error) {
	f.connectCalls = append(f.connectCalls, kind)
	if f.connectErr != nil {
		return "", f.connectErr
	}
	return "https://auth.example/" + string(kind) + "?user=" + userID, nil
}

func (f *fakeManager) Disconnect(_ context.Context, _ string, kind domain.ServiceKind) error {
	f.disconnected = append(f.disconnected, kind)
	return nil
}

func (f *fakeManager) Status(context.Context, string) (map[domain.ServiceKind]bool, error) {
	return f.connected, nil
}

func newCommands(m *fakeManager) *Commands {
	return NewCommands(CommandOptions{Name: "/readbot", Manager: m, Settings: services.Defaults()})
}

func TestCommands_Connect(t *testing.T) {
	m := &fakeManager{}
	c := newCommands(m)

	got := c.Run(context.Background(), "U1", "  Connect   GOODREADS ")

	want := "Please visit https://auth.example/goodreads?user=U1 to connect your Goodreads account."
	if got != want {
		t.Errorf("Run() = %q, want %q", got, want)
	}
	if len(m.connectCalls) != 1 || m.connectCalls[0] != domain.CatalogService {
		t.Errorf("Connect calls = %v", m.connectCalls)
	}
}

func TestCommands_ConnectRemoteFailure(t *testing.T) {
	m := &fakeManager{connectErr: &domain.RemoteError{
		Service: domain.ReadLaterService,
		Op:      domain.OpRequestToken,
		Err:     errors.New("status 403: Invalid consumer key."),
	}}

	got := newCommands(m).Run(context.Background(), "U1", "connect pocket")

	if got != "Couldn't reach Pocket: status 403: Invalid consumer key." {
		t.Errorf("Run() = %q", got)
	}
}

func TestCommands_Usage(t *testing.T) {
	m := &fakeManager{}
	c := newCommands(m)

	for _, text := range []string{"", "help", "connect", "connect goodreads pocket", "dance"} {
		got := c.Run(context.Background(), "U1", text)
		if !strings.Contains(got, "Usage:") || !strings.Contains(got, "/readbot connect goodreads") {
			t.Errorf("Run(%q) = %q, want usage", text, got)
		}
	}
	if len(m.connectCalls) != 0 {
		t.Errorf("Connect called for usage requests: %v", m.connectCalls)
	}

	if got := c.Run(context.Background(), "U1", "connect myspace"); !strings.Contains(got, `"myspace"`) {
		t.Errorf("unknown service reply = %q", got)
	}
}

func TestCommands_StatusAndDisconnect(t *testing.T) {
	m := &fakeManager{connected: map[domain.ServiceKind]bool{domain.ReadLaterService: true}}
	c := newCommands(m)

	if got := c.Run(context.Background(), "U1", "status"); got != "Goodreads: not connected\nPocket: connected" {
		t.Errorf("status = %q", got)
	}

	if got := c.Run(context.Background(), "U1", "disconnect pocket"); got != "Your Pocket account is disconnected." {
		t.Errorf("disconnect = %q", got)
	}
	if len(m.disconnected) != 1 || m.disconnected[0] != domain.ReadLaterService {
		t.Errorf("disconnected = %v", m.disconnected)
	}
}
