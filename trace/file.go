package trace

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.fiblab.net/sim/mobility/geo"
)

// 轨迹数据源
type Source interface {
	// 数据源标识，同一标识只加载一次
	Key() string
	Records(ctx context.Context) ([]Record, error)
}

// FileSource CSV格式的轨迹文件
//
//	# 注释行
//	id,time,lat,lon
//	0,0,45.0000,9.0000
//	0,10,45.0010,9.0000
//	1,0,45.0005,9.0010
//
// 每行一个采样点，可选表头；ID相同的连续行构成一条轨迹
type FileSource struct {
	Path string
}

func (s FileSource) Key() string {
	if abs, err := filepath.Abs(s.Path); err == nil {
		return abs
	}
	return s.Path
}

func (s FileSource) Records(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return records, nil
}

func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	records := make([]Record, 0)
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "id") {
				continue
			}
		}
		line, _ := reader.FieldPos(0)
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id: %w", line, err)
		}
		values := make([]float64, 3)
		for i := range values {
			if values[i], err = strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64); err != nil {
				return nil, fmt.Errorf("line %d: bad field %d: %w", line, i+2, err)
			}
		}
		sample := Sample{Time: values[0], Position: geo.NewPosition(values[1], values[2])}
		if !sample.Valid() {
			return nil, fmt.Errorf("line %d: invalid sample t=%v lat=%v lon=%v", line, values[0], values[1], values[2])
		}
		if n := len(records); n > 0 && records[n-1].ID == id {
			records[n-1].Samples = append(records[n-1].Samples, sample)
		} else {
			records = append(records, Record{ID: id, Samples: []Sample{sample}})
		}
	}
	return records, nil
}
