package scanconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads YAML file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML over the defaults and validates
// modules 섹션이 있으면 기본 모듈 목록을 대체 (나열된 모듈만 사용)
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	cfg.Modules = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scan config: %w", err)
	}

	if cfg.Modules == nil {
		cfg.Modules = Default().Modules
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the canonical YAML (map 키 정렬)
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Hash generates SHA256 hash from the canonical YAML
// 동일 설정 → 동일 해시 (로그/저장 row에 기록)
func Hash(cfg *Config) (string, error) {
	b, err := Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
