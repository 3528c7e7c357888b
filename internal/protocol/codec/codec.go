package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/turn-party/internal/protocol"
)

// Format 线路编码格式
type Format int

const (
	FormatJSON  Format = iota // 文本帧，JSON
	FormatProto               // 二进制帧，protobuf Struct 信封
)

// ParseFormat 解析客户端声明的编码格式，未知值回退为 JSON
func ParseFormat(s string) Format {
	switch s {
	case "proto", "protobuf", "pb":
		return FormatProto
	default:
		return FormatJSON
	}
}

func (f Format) String() string {
	if f == FormatProto {
		return "proto"
	}
	return "json"
}

// NewMessage 创建一个新消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := GetMessage()
	msg.Type = msgType

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			PutMessage(msg)
			return nil, fmt.Errorf("编码 payload 失败: %w", err)
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 按指定格式编码消息
func Encode(m *protocol.Message, format Format) ([]byte, error) {
	if format == FormatProto {
		return encodeProto(m)
	}
	return encodeJSON(m)
}

// Decode 按指定格式解码消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func Decode(data []byte, format Format) (*protocol.Message, error) {
	if format == FormatProto {
		return decodeProto(data)
	}
	return decodeJSON(data)
}

func encodeJSON(m *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(m); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return append([]byte(nil), out...), nil
}

func decodeJSON(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, fmt.Errorf("消息缺少 type 字段")
	}
	return msg, nil
}

// encodeProto 信封格式: {"type": string, "payload": Struct|null}
func encodeProto(m *protocol.Message) ([]byte, error) {
	env := GetEnvelope()
	defer PutEnvelope(env)

	env.Fields = map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		var raw any
		if err := json.Unmarshal(m.Payload, &raw); err != nil {
			return nil, fmt.Errorf("payload 不是合法 JSON: %w", err)
		}
		v, err := structpb.NewValue(raw)
		if err != nil {
			return nil, fmt.Errorf("payload 无法转换为 protobuf: %w", err)
		}
		env.Fields["payload"] = v
	}
	return proto.Marshal(env)
}

func decodeProto(data []byte) (*protocol.Message, error) {
	env := GetEnvelope()
	defer PutEnvelope(env)

	if err := proto.Unmarshal(data, env); err != nil {
		return nil, err
	}
	typ := env.GetFields()["type"].GetStringValue()
	if typ == "" {
		return nil, fmt.Errorf("消息缺少 type 字段")
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(typ)
	if v, ok := env.GetFields()["payload"]; ok {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); !isNull {
			payload, err := json.Marshal(v.AsInterface())
			if err != nil {
				PutMessage(msg)
				return nil, err
			}
			msg.Payload = payload
		}
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code int) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
	return msg
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}
