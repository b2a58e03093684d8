package models

import "github.com/bytedance/sonic"

func marshalJSON(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}
