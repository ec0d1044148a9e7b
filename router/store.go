package router

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v2"
)

// 持久化路网的元信息，写入完成的标志
type meta struct {
	FormatVersion int    `yaml:"format_version"`
	Vehicle       string `yaml:"vehicle"`
	Nodes         int    `yaml:"nodes"`
	Edges         int    `yaml:"edges"`
	BuiltAt       string `yaml:"built_at"`
}

// 目录中是否存在已构建的路网
func hasArtifacts(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, META_FILE))
	return err == nil
}

// 元信息与路网文件不一致或无法解码时返回ErrIncompatibleFormat，由调用方删除重建
func loadArtifacts(dir string, v Vehicle) (*GraphData, error) {
	b, err := os.ReadFile(filepath.Join(dir, META_FILE))
	if err != nil {
		return nil, err
	}
	var m meta
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: bad %s: %v", ErrIncompatibleFormat, META_FILE, err)
	}
	if m.FormatVersion != FORMAT_VERSION {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrIncompatibleFormat, m.FormatVersion, FORMAT_VERSION)
	}
	if m.Vehicle != v.String() {
		return nil, fmt.Errorf("%w: %s built for %q, want %q", ErrIncompatibleFormat, META_FILE, m.Vehicle, v)
	}
	b, err = os.ReadFile(filepath.Join(dir, GRAPH_FILE))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleFormat, err)
	}
	var data GraphData
	if err := bson.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrIncompatibleFormat, GRAPH_FILE, err)
	}
	if data.Vehicle != m.Vehicle || len(data.Nodes) != m.Nodes || len(data.Edges) != m.Edges {
		return nil, fmt.Errorf("%w: %s does not match %s", ErrIncompatibleFormat, GRAPH_FILE, META_FILE)
	}
	return &data, nil
}

// 先写路网再写元信息，元信息存在即表示写入完成
func writeArtifacts(dir string, data *GraphData) error {
	b, err := bson.Marshal(data)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, GRAPH_FILE), b); err != nil {
		return err
	}
	m := meta{
		FormatVersion: FORMAT_VERSION,
		Vehicle:       data.Vehicle,
		Nodes:         len(data.Nodes),
		Edges:         len(data.Edges),
		BuiltAt:       time.Now().Format(time.RFC3339),
	}
	b, err = yaml.Marshal(&m)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, META_FILE), b)
}

func writeFileAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	return nil
}
