package main

import (
	"encoding/json"
)

// connect的JSON编解码，消息为普通Go结构体
// 替换内置的只支持protobuf消息的json编解码
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
