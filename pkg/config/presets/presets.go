// Package presets generates starter bark.yaml files.
package presets

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultTemplate is written by "bark config init default".
const DefaultTemplate = `# bark.yaml
version: 1

# ${root} is the directory holding this file; ${NAME} reads the environment.
sources:
  app:
    kind: file
    files:
      - "${root}/logs/*.log"
  # web:
  #   kind: docker
  #   container: web-1
  # api:
  #   kind: k8s
  #   pod: api-0
  #   namespace: default
  # remote:
  #   kind: ssh
  #   host: deploy@web1
  #   path: /var/log/nginx/error.log
  # nginx:
  #   kind: journald
  #   unit: nginx
  # worker:
  #   kind: exec
  #   command: "./worker --verbose"
  #   restart: on-failure   # always | on-failure | never
  # ingest:
  #   kind: socket          # feed with: some-cmd | bark send

# compose:
#   file: "${root}/compose.yml"

filters:
  - name: errors
    pattern: "error"
  - name: http 5xx
    pattern: '" 5\d\d '
    regex: true

settings:
  debounce: 150ms
  queue_size: 1024
  follow: true
  # wrap: false
  # level_colors: true
  # relative_time: false
  # json_pretty: false
  # tail: 1000
`

// Names lists the available presets.
func Names() []string {
	return []string{"default", "laravel"}
}

// Generate renders the named preset for a project root.
func Generate(name, root string) ([]byte, error) {
	switch name {
	case "default":
		return []byte(DefaultTemplate), nil
	case "laravel":
		c, err := GenerateLaravel(root)
		if err != nil {
			return nil, err
		}
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unknown preset %q (available: %v)", name, Names())
}
