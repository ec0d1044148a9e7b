package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 输入数据位置：本地文件或MongoDB集合
type Path struct {
	File string
	DB   string
	Coll string
}

// 解析{fspath}或{db}.{col}，空字符串返回nil
// 存在同名文件时优先视为文件
func NewPath(filePathOrColl string) (*Path, error) {
	if _, err := os.Stat(filePathOrColl); err == nil {
		abs, err := filepath.Abs(filePathOrColl)
		if err != nil {
			return nil, err
		}
		return &Path{File: abs}, nil
	}
	dbDotColl := strings.TrimSpace(filePathOrColl)
	if dbDotColl == "" {
		return nil, nil
	}
	splitted := strings.Split(dbDotColl, ".")
	if len(splitted) != 2 || splitted[0] == "" || splitted[1] == "" {
		return nil, fmt.Errorf("neither a file nor {db}.{col}: %s", dbDotColl)
	}
	return &Path{DB: splitted[0], Coll: splitted[1]}, nil
}

func (p *Path) IsFile() bool {
	return p.File != ""
}

func (p *Path) GetDb() string {
	return p.DB
}

func (p *Path) GetColl() string {
	return p.Coll
}

func (p *Path) String() string {
	if p.IsFile() {
		return p.File
	}
	return p.DB + "." + p.Coll
}
