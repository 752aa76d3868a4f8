package buddy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/soberlit/internal/cli"
	"github.com/julianstephens/soberlit/internal/constants"
	"github.com/julianstephens/soberlit/internal/keyring"
	"github.com/julianstephens/soberlit/internal/notifier"
	"github.com/julianstephens/soberlit/internal/storage"
	"github.com/julianstephens/soberlit/internal/storage/sqlite"
)

func setupTestDB(t *testing.T, webhook string) *cli.Context {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	bg := context.Background()
	if err := storage.SeedDefaults(bg, store); err != nil {
		t.Fatal(err)
	}
	settings, err := storage.GetSettings(bg, store)
	if err != nil {
		t.Fatal(err)
	}
	settings.BuddyWebhookURL = webhook
	settings.BuddyName = "Alex"
	if err := storage.SaveSettings(bg, store, settings); err != nil {
		t.Fatal(err)
	}

	ctx := &cli.Context{Store: store, Config: dbPath}
	t.Cleanup(func() {
		ctx.Close()
		store.Close()
	})
	return ctx
}

func TestSecretCmds(t *testing.T) {
	gokeyring.MockInit()
	ctx := &cli.Context{}

	if err := (&SetSecretCmd{}).Run(ctx); err == nil {
		t.Error("expected an empty secret to be rejected")
	}
	if err := (&SetSecretCmd{Secret: "s3cret"}).Run(ctx); err != nil {
		t.Fatalf("set-secret failed: %v", err)
	}
	if got, err := keyring.GetBuddySecret(); err != nil || got != "s3cret" {
		t.Errorf("GetBuddySecret() = %q, %v", got, err)
	}
	if err := (&ClearSecretCmd{}).Run(ctx); err != nil {
		t.Fatalf("clear-secret failed: %v", err)
	}
	if err := (&ClearSecretCmd{}).Run(ctx); err == nil {
		t.Error("expected clearing a missing secret to fail")
	}
}

func TestTestCmd(t *testing.T) {
	gokeyring.MockInit()
	if err := keyring.SetBuddySecret("s3cret"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = keyring.DeleteBuddySecret() }()

	var got notifier.BuddyPayload
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get(constants.BuddySecretHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx := setupTestDB(t, srv.URL)
	if err := (&TestCmd{}).Run(ctx); err != nil {
		t.Fatalf("buddy test failed: %v", err)
	}
	if got.Event != notifier.BuddyEventTest || got.Name != "Alex" {
		t.Errorf("payload = %+v", got)
	}
	if secret != "s3cret" {
		t.Errorf("secret header = %q", secret)
	}
}

func TestTestCmd_NotConfigured(t *testing.T) {
	ctx := setupTestDB(t, "")
	if err := (&TestCmd{}).Run(ctx); err == nil {
		t.Error("expected an error without a webhook")
	}
}
