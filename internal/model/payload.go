package model

import "time"

// Version はAPIのバージョン文字列。Payloadに埋め込まれる。
const Version = "0.4.1"

// Payload はAPIレスポンスの統一エンベロープを表す。
// Tokenはレスポンスボディに絶対にシリアライズしない。
// トークンはCookieまたはリダイレクトのクエリパラメータでのみ運搬する。
type Payload struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"-"`
}

// NewPayload は現在時刻とバージョンを埋めたPayloadを生成する。
func NewPayload(status string, data any) *Payload {
	return &Payload{
		Status:  status,
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Version: Version,
		Data:    data,
	}
}
