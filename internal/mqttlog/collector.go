package mqttlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrBadLogTopic vrací Collector pro topic, ze kterého nejde vyčíst služba.
var ErrBadLogTopic = errors.New("log topic without service name")

// Collector ukládá logy přijaté z logs/<služba>/... do <dir>/<služba>.log.
type Collector struct {
	dir string
	mu  sync.Mutex // zápisy z více služeb se nesmí proplést
}

// NewCollector vytvoří adresář pro logy (pokud neexistuje).
func NewCollector(dir string) (*Collector, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("log dir %s: %w", dir, err)
	}
	return &Collector{dir: dir}, nil
}

// Append připíše payload jako jeden řádek do souboru služby z topicu.
func (c *Collector) Append(topic string, payload []byte) error {
	service, err := serviceFromTopic(topic)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Open-Write-Close při každém zápisu snese rotaci logů zvenku.
	f, err := os.OpenFile(filepath.Join(c.dir, service+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := payload
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(append(make([]byte, 0, len(payload)+1), payload...), '\n')
	}
	_, err = f.Write(line)
	return err
}

// serviceFromTopic vrátí druhý segment topicu "logs/<služba>[/...]".
func serviceFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[1] == "" || parts[1] == "." || parts[1] == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadLogTopic, topic)
	}
	return parts[1], nil
}
