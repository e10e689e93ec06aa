package conf

import (
	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/pelletier/go-toml/v2"
)

// TomlName 配置文件扩展名 .toml 对应的编码名。
const TomlName = "toml"

func init() {
	encoding.RegisterCodec(tomlCodec{})
}

// tomlCodec 让 kratos config 可以读取 .toml 配置文件。
type tomlCodec struct{}

func (tomlCodec) Marshal(v interface{}) ([]byte, error) {
	return toml.Marshal(v)
}

func (tomlCodec) Unmarshal(data []byte, v interface{}) error {
	return toml.Unmarshal(data, v)
}

func (tomlCodec) Name() string {
	return TomlName
}
