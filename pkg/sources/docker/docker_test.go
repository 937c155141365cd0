package docker

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"github.com/modoterra/bark/pkg/core"
)

type fakeAPI struct {
	tty        bool
	logs       []byte
	inspectErr error
	gotOpts    client.ContainerLogsOptions
}

func (f *fakeAPI) ContainerInspect(_ context.Context, _ string, _ client.ContainerInspectOptions) (client.ContainerInspectResult, error) {
	if f.inspectErr != nil {
		return client.ContainerInspectResult{}, f.inspectErr
	}
	return client.ContainerInspectResult{
		Container: container.InspectResponse{Config: &container.Config{Tty: f.tty}},
	}, nil
}

func (f *fakeAPI) ContainerLogs(_ context.Context, _ string, opts client.ContainerLogsOptions) (client.ContainerLogsResult, error) {
	f.gotOpts = opts
	return io.NopCloser(bytes.NewReader(f.logs)), nil
}

// frame encodes payload in the multiplexed stream format.
func frame(stream byte, payload string) []byte {
	header := make([]byte, 8)
	header[0] = stream
	binary.BigEndian.PutUint32(header[4:], uint32(len(payload)))
	return append(header, payload...)
}

func streamAll(t *testing.T, src *Source) []string {
	t.Helper()
	ch := make(chan core.Event, 32)
	if err := src.Stream(context.Background(), core.NewEmitter(src.Name(), ch)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	close(ch)
	var lines []string
	for ev := range ch {
		lines = append(lines, ev.Text)
	}
	return lines
}

func TestStreamDemultiplexes(t *testing.T) {
	var logs []byte
	logs = append(logs, frame(1, "starting server\n")...)
	logs = append(logs, frame(2, "warning: low memory\n")...)
	logs = append(logs, frame(1, "listening on :80\n")...)
	api := &fakeAPI{logs: logs}

	got := streamAll(t, New(api, "web-1", Options{}))
	want := []string{"starting server", "warning: low memory", "listening on :80"}
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !api.gotOpts.Follow || !api.gotOpts.ShowStderr || api.gotOpts.Tail != "all" {
		t.Errorf("logs options = %+v", api.gotOpts)
	}
}

func TestStreamTTYPassesThrough(t *testing.T) {
	api := &fakeAPI{tty: true, logs: []byte("\x1b[32mready\x1b[0m\r\nsecond\n")}
	got := streamAll(t, New(api, "shell", Options{Name: "app", Tail: "100"}))
	if len(got) != 2 || got[0] != "\x1b[32mready\x1b[0m" || got[1] != "second" {
		t.Errorf("lines = %q", got)
	}
	if api.gotOpts.Tail != "100" {
		t.Errorf("tail = %q, want 100", api.gotOpts.Tail)
	}
}

func TestStreamInspectError(t *testing.T) {
	api := &fakeAPI{inspectErr: errors.New("no such container")}
	src := New(api, "ghost", Options{})
	err := src.Stream(context.Background(), core.NewEmitter("ghost", make(chan core.Event, 1)))
	if err == nil {
		t.Fatal("expected inspect error")
	}
}

func TestParseComposeFile(t *testing.T) {
	content := `
name: shop
services:
  redis:
    image: redis:7
  mailpit:
    image: axllent/mailpit
    container_name: mailpit
  mysql:
    image: mysql:8
`
	path := filepath.Join(t.TempDir(), "compose.yml")
	os.WriteFile(path, []byte(content), 0644)

	cf, err := ParseComposeFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cf.Services) != 3 {
		t.Errorf("services: got %d, want 3", len(cf.Services))
	}
	if cf.Services["mailpit"].ContainerName != "mailpit" {
		t.Errorf("mailpit container_name: got %q", cf.Services["mailpit"].ContainerName)
	}
	names := cf.ServiceNames()
	if len(names) != 3 || names[0] != "mailpit" || names[2] != "redis" {
		t.Errorf("service names: got %v", names)
	}
	if p := ProjectName(cf, path, ""); p != "shop" {
		t.Errorf("project: got %q, want shop", p)
	}
}

func TestProjectNameFallsBackToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "myapp")
	path := filepath.Join(dir, "compose.yml")
	cf := &ComposeFile{}
	if p := ProjectName(cf, path, ""); p != "myapp" {
		t.Errorf("project: got %q, want myapp", p)
	}
	if p := ProjectName(cf, path, "explicit"); p != "explicit" {
		t.Errorf("project: got %q, want explicit", p)
	}
}

func TestAutoImport(t *testing.T) {
	cf := &ComposeFile{
		Services: map[string]ComposeService{
			"redis":   {Image: "redis:7"},
			"mailpit": {Image: "axllent/mailpit", ContainerName: "mailpit"},
			"mysql":   {Image: "mysql:8"},
		},
	}

	// redis is already configured
	existing := map[string]bool{"redis": true}

	targets := AutoImport(cf, existing, "myapp")
	if len(targets) != 2 {
		t.Fatalf("expected 2 auto-imports, got %d", len(targets))
	}
	for _, tg := range targets {
		switch tg.Name {
		case "redis":
			t.Error("redis should have been skipped")
		case "mailpit":
			if tg.Container != "mailpit" {
				t.Errorf("mailpit container: got %q, want 'mailpit'", tg.Container)
			}
		case "mysql":
			if tg.Container != "myapp-mysql-1" {
				t.Errorf("mysql container: got %q, want 'myapp-mysql-1'", tg.Container)
			}
		}
	}
}

func TestAutoImport_NoProject(t *testing.T) {
	cf := &ComposeFile{
		Services: map[string]ComposeService{
			"app": {Image: "myapp:latest"},
		},
	}
	targets := AutoImport(cf, nil, "")
	if len(targets) != 1 {
		t.Fatalf("expected 1, got %d", len(targets))
	}
	if targets[0].Container != "" {
		t.Errorf("expected empty container name, got %q", targets[0].Container)
	}
}
