package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rushteam/reco/core"
)

// Persister 负责 Scorer 工件的持久化。
// location 是不透明的位置标识（文件路径或存储 key）。
// Load 在位置上没有工件时返回 (nil, nil)，不是错误。
type Persister interface {
	Save(ctx context.Context, s Scorer, location string) error
	Load(ctx context.Context, location string) (Scorer, error)
}

// artifact 是持久化的 JSON 工件格式。
type artifact struct {
	Name  string          `json:"name"`
	Model json.RawMessage `json:"model"`
}

func encodeArtifact(s Scorer) ([]byte, error) {
	mlp, ok := s.(*MLP)
	if !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: cannot persist scorer %q", s.Name()))
	}
	raw, err := json.Marshal(mlp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(artifact{Name: mlp.Name(), Model: raw})
}

func decodeArtifact(data []byte) (Scorer, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Name != "mlp" {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: unknown scorer artifact %q", a.Name))
	}
	var m MLP
	if err := json.Unmarshal(a.Model, &m); err != nil {
		return nil, fmt.Errorf("decode mlp: %w", err)
	}
	return &m, nil
}

// FilePersister 把工件存为本地 JSON 文件。
// 写入走同目录临时文件 + rename，保证读侧不会看到写了一半的工件
// （持久化位置是单写者资源）。
type FilePersister struct{}

func (FilePersister) Save(_ context.Context, s Scorer, location string) error {
	data, err := encodeArtifact(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(location)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

func (FilePersister) Load(_ context.Context, location string) (Scorer, error) {
	data, err := os.ReadFile(location)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return decodeArtifact(data)
}

// StorePersister 把工件存进 core.Store（如 Redis），location 即存储 key。
// Store 自身的 Set 原子性保证读侧不会看到半个工件。
type StorePersister struct {
	Store core.Store
}

func (p *StorePersister) Save(ctx context.Context, s Scorer, location string) error {
	data, err := encodeArtifact(s)
	if err != nil {
		return err
	}
	return p.Store.Set(ctx, location, data)
}

func (p *StorePersister) Load(ctx context.Context, location string) (Scorer, error) {
	data, err := p.Store.Get(ctx, location)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return decodeArtifact(data)
}
