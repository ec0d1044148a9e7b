// Package workspace 选择用于保存预处理路网文件的本地目录
package workspace

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// 校验和的编码进制
	ENCODING_BASE = 36
	// 默认的持久化目录名（位于用户主目录下）
	PERSISTENT_DIR = ".mobility"
	// 写权限探测文件名
	probeFile = ".probe"
)

var (
	// 错误：所有候选目录均不可写
	ErrWorkspaceUnavailable = errors.New("workspace unavailable")
)

// 默认候选根目录，按优先级排列：用户持久目录、系统临时目录、当前工作目录、"."
func DefaultRoots() []string {
	roots := make([]string, 0, 4)
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, PERSISTENT_DIR))
	}
	roots = append(roots, os.TempDir())
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}
	roots = append(roots, ".")
	return roots
}

// 计算地图文件的内容标识：CRC32校验和的36进制表示
func Checksum(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(h.Sum32()), ENCODING_BASE), nil
}

// 工作目录的子路径：文件名+校验和
func Subpath(mapFile string) (string, error) {
	code, err := Checksum(mapFile)
	if err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", mapFile, err)
	}
	return filepath.Base(mapFile) + code, nil
}

// Resolve 依次尝试候选根目录，返回第一个可创建且可写的工作目录
// roots为空时使用DefaultRoots()
// 多进程共享文件系统时的检查-使用竞争是可接受的：冲突只会导致重复构建路网
func Resolve(mapFile string, roots []string) (string, error) {
	sub, err := Subpath(mapFile)
	if err != nil {
		return "", err
	}
	if len(roots) == 0 {
		roots = DefaultRoots()
	}
	for i, root := range roots {
		dir := filepath.Join(root, sub)
		if err := prepare(dir); err != nil {
			if i+1 < len(roots) {
				log.Warnf("can not write on %s (%v), trying %s", dir, err, roots[i+1])
			} else {
				log.Warnf("can not write on %s (%v)", dir, err)
			}
			continue
		}
		log.Infof("workspace at %s", dir)
		return dir, nil
	}
	return "", fmt.Errorf("%w: none of %v is writable", ErrWorkspaceUnavailable, roots)
}

// 创建目录并验证写权限
func prepare(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if stat, err := os.Stat(dir); err != nil {
		return err
	} else if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	probe := filepath.Join(dir, probeFile)
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
