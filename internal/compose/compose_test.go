package compose

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dosanma1/imgship/internal/executil"
	"github.com/dosanma1/imgship/internal/executil/executiltest"
)

const descriptor = `
services:
  api:
    image: registry.local/team/api:1.4.0
    volumes:
      - ./data/api:/var/lib/api
      - ./config/api.yaml:/etc/api.yaml:ro
      - cache:/cache
      - /var/log/api:/logs
  db:
    image: postgres:16
    volumes:
      - type: bind
        source: ./data/db
        target: /var/lib/postgresql/data
      - type: volume
        source: dbsocket
        target: /run/postgresql
  worker:
    image: registry.local/team/api:1.4.0
    volumes:
      - ./data/api/:/var/lib/api
volumes:
  cache: {}
  dbsocket: {}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(descriptor))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := f.ServiceNames(), []string{"api", "db", "worker"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ServiceNames() = %v, want %v", got, want)
	}
	if got, want := f.Images(), []string{"registry.local/team/api:1.4.0", "postgres:16"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Images() = %v, want %v", got, want)
	}
	want := []string{"./data/api", "./data/db"}
	if got := f.BindSources(); !reflect.DeepEqual(got, want) {
		t.Errorf("BindSources() = %v, want %v", got, want)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("services: [")); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name    string
		fail    map[string]bool
		want    []string
		wantErr error
	}{
		{name: "plugin", want: []string{"docker", "compose"}},
		{name: "standalone", fail: map[string]bool{"docker": true}, want: []string{"docker-compose"}},
		{name: "none", fail: map[string]bool{"docker": true, "docker-compose": true}, wantErr: ErrNoComposeTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &executiltest.Runner{Handler: func(cmd executil.Command) executiltest.Response {
				if tt.fail[cmd.Name] {
					return executiltest.Response{Err: errors.New("not found")}
				}
				return executiltest.Response{}
			}}
			got, err := Command(context.Background(), r, "docker")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Command() = %v, want %v", got, tt.want)
			}
		})
	}
}
