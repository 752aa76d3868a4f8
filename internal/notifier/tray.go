package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/errors"
)

var findProcessFunc = ps.FindProcess

// Tray posts notifications to a running soberlit-tray. The tray writes a
// `port|pid|secret` lockfile next to the soberlit database when it starts.
type Tray struct {
	client   *http.Client
	lockfile string
}

// trayLock is a parsed and verified tray lockfile.
type trayLock struct {
	port   int
	pid    int
	secret string
}

type trayMessage struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

func NewTray(lockfile string) *Tray {
	return &Tray{client: &http.Client{Timeout: 5 * time.Second}, lockfile: lockfile}
}

func (t *Tray) Notify(ctx context.Context, title, body string) error {
	lock, err := readTrayLock(t.lockfile)
	if err != nil {
		return err
	}
	return t.post(ctx, lock, trayMessage{Title: title, Text: body})
}

func readTrayLock(path string) (trayLock, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return trayLock{}, fmt.Errorf("%s is not running", constants.TrayProcessName)
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return trayLock{}, errors.New("tray lockfile is malformed")
	}

	var lock trayLock
	if lock.port, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return trayLock{}, errors.New("tray lockfile has an invalid port")
	}
	if lock.port < 1 || lock.port > 65535 {
		return trayLock{}, fmt.Errorf("tray port %d is out of range", lock.port)
	}
	if lock.pid, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return trayLock{}, errors.New("tray lockfile has an invalid process ID")
	}
	if lock.secret = strings.TrimSpace(parts[2]); lock.secret == "" {
		return trayLock{}, errors.New("tray lockfile has an empty secret")
	}

	// A stale lockfile outlives a crashed tray; the pid must still be the tray.
	process, err := findProcessFunc(lock.pid)
	if err != nil || process == nil {
		return trayLock{}, fmt.Errorf("%s is not running", constants.TrayProcessName)
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayProcessName) {
		return trayLock{}, fmt.Errorf("process %d is %s, not %s", lock.pid, process.Executable(), constants.TrayProcessName)
	}
	return lock, nil
}

func (t *Tray) post(ctx context.Context, lock trayLock, msg trayMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	url := "http://127.0.0.1:" + strconv.Itoa(lock.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, lock.secret)

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("tray unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("tray rejected notification with status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
}
