package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sage-x-project/agentconn/config"
	"github.com/sage-x-project/agentconn/internal/logger"
	"github.com/sage-x-project/agentconn/pkg/agent/connection"
	"github.com/sage-x-project/agentconn/pkg/agent/connection/cloudagent"
	"github.com/sage-x-project/agentconn/pkg/agent/wallet"
)

// record is the on-disk form of one connection: its serialized Entity
// envelope plus the identity key material a fresh process needs to resume
// signing/decrypting on its behalf. Persisting both side by side is the
// CLI's own concern; the connection core itself only ever deals in the
// entity envelope (connection.ToString/FromString).
type record struct {
	Entity   string `json:"entity"`
	Identity []byte `json:"identity"`
}

func recordPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("--id is required")
	}
	if err := os.MkdirAll(storeDir, 0o700); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}
	return filepath.Join(storeDir, id+".json"), nil
}

func saveRecord(id string, rec record) error {
	path, err := recordPath(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func loadRecord(id string) (record, error) {
	path, err := recordPath(id)
	if err != nil {
		return record{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, fmt.Errorf("no connection named %q: %w", id, err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, err
	}
	return rec, nil
}

func listIDs() ([]string, error) {
	entries, err := os.ReadDir(storeDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

// session bundles a fresh Manager and wallet for one CLI invocation, with
// helpers to resume a previously saved connection into it and persist the
// result back afterward.
type session struct {
	manager *connection.Manager
	wallet  wallet.Wallet
}

func newSession() (*session, error) {
	var cfg *config.ConnectionConfig
	if configPath != "" {
		full, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = full.Connection
	}
	if cfg == nil {
		cfg = &config.ConnectionConfig{ProtocolType: "2.0"}
	}

	w := wallet.NewMemoryWallet()
	var transport cloudagent.Transport
	if cfg.AgencyEndpoint != "" && !cfg.EnableTestMode {
		transport = cloudagent.NewHTTPTransport(cfg.AgencyEndpoint)
	} else {
		transport = cloudagent.NewMockTransport()
	}
	client := cloudagent.NewClient(transport, w.Sign)
	mgr := connection.NewManager(cfg, w, client, logger.GetDefaultLogger())

	return &session{manager: mgr, wallet: w}, nil
}

// resume loads id's saved record into s, returning the handle it now lives
// under in this process's Manager/Registry.
func (s *session) resume(ctx context.Context, id string) (connection.Handle, error) {
	rec, err := loadRecord(id)
	if err != nil {
		return 0, err
	}

	exporter, ok := s.wallet.(wallet.KeyExporter)
	if !ok {
		return 0, fmt.Errorf("wallet does not support identity import")
	}
	if _, err := exporter.ImportIdentity(ctx, rec.Identity); err != nil {
		return 0, fmt.Errorf("restore identity: %w", err)
	}

	return s.manager.FromString(rec.Entity)
}

// persist saves handle's current entity state under id, alongside the key
// material for its own pairwise verkey so a later invocation can resume it.
func (s *session) persist(ctx context.Context, id string, handle connection.Handle) error {
	entityText, err := s.manager.ToString(handle)
	if err != nil {
		return err
	}

	pwVerkey, err := s.manager.GetPwVerkey(handle)
	if err != nil {
		return err
	}
	exporter, ok := s.wallet.(wallet.KeyExporter)
	if !ok {
		return fmt.Errorf("wallet does not support identity export")
	}
	identity, err := exporter.ExportIdentity(ctx, pwVerkey)
	if err != nil {
		return err
	}

	return saveRecord(id, record{Entity: entityText, Identity: identity})
}
