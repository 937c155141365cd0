package ssh

import (
	"strings"
	"testing"
)

func TestArgs(t *testing.T) {
	o := Options{Host: "deploy@web1", Path: "/var/log/nginx/error.log"}
	want := "ssh -o BatchMode=yes deploy@web1 tail -n +1 -F /var/log/nginx/error.log"
	if got := strings.Join(o.Args(), " "); got != want {
		t.Errorf("Args() = %q, want %q", got, want)
	}
	if got := New(o, nil).Name(); got != "deploy@web1:/var/log/nginx/error.log" {
		t.Errorf("Name() = %q", got)
	}
}
