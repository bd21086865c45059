package service

import (
	"time"

	"github.com/haierkeys/block-note-service/pkg/timex"

	"github.com/jinzhu/copier"
)

// copyOption converts domain timestamps into timex.Time while copying into DTOs
var copyOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: time.Time{},
			DstType: timex.Time{},
			Fn: func(src interface{}) (interface{}, error) {
				return timex.Time(src.(time.Time)), nil
			},
		},
	},
}

// copyTo copies src into dst with the DTO converters
// copyTo 将领域对象复制到 DTO
func copyTo(dst, src interface{}) error {
	return copier.CopyWithOption(dst, src, copyOption)
}

// copyEach copies every element of src into a new D, the result is never nil
// copyEach 逐个复制，结果不为 nil
func copyEach[D any, S any](src []*S) ([]*D, error) {
	out := make([]*D, 0, len(src))
	for _, s := range src {
		d := new(D)
		if err := copyTo(d, s); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
