package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/haierkeys/block-note-service/pkg/block"

	"github.com/bytedance/sonic"
)

// Blocks the blocks column, stored as a JSON array in a text column
// Blocks 以 JSON 数组形式存入 text 列
type Blocks []block.Block

// Value encodes nil as "[]" so the column is never NULL
func (b Blocks) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	data, err := sonic.Marshal([]block.Block(b))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *Blocks) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*b = Blocks{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("model.Blocks: unsupported scan type %T", value)
	}
	if len(data) == 0 {
		*b = Blocks{}
		return nil
	}
	var out []block.Block
	if err := sonic.Unmarshal(data, &out); err != nil {
		return err
	}
	if out == nil {
		out = []block.Block{}
	}
	*b = out
	return nil
}
