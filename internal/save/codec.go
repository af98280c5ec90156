package save

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/pbkdf2"

	"github.com/annel0/tile-match/internal/logging"
)

// Встроенные параметры ключа. Ключ статический по построению: сейв
// защищается от правки в текстовом редакторе, не от целевой атаки.
const (
	defaultPassphrase = "tile-match-save-v1"
	pbkdf2Iterations  = 4096
	keyLength         = 32
)

var defaultSalt = []byte{0x7a, 0x19, 0xe4, 0x52, 0x08, 0xcd, 0x3b, 0x91}

// Заголовок блоба: магия + флаги
var blobMagic = []byte{'T', 'M', 'S', CurrentVersion}

const (
	flagEncrypted = 1 << 0
)

// Codec кодирует сейв-блоб: JSON → zstd → (опционально) AES-256-GCM.
type Codec struct {
	encrypt    bool
	key        []byte
	compressor *zstd.Encoder
	decompress *zstd.Decoder
}

// NewCodec создаёт кодек. Пустой passphrase заменяется встроенным.
func NewCodec(passphrase string, encrypt bool) (*Codec, error) {
	if passphrase == "" {
		passphrase = defaultPassphrase
	}

	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать компрессор: %w", err)
	}
	decompress, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать декомпрессор: %w", err)
	}

	return &Codec{
		encrypt:    encrypt,
		key:        pbkdf2.Key([]byte(passphrase), defaultSalt, pbkdf2Iterations, keyLength, sha256.New),
		compressor: compressor,
		decompress: decompress,
	}, nil
}

// Encode сериализует состояние в блоб.
func (c *Codec) Encode(data *Data) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации сейва: %w", err)
	}

	compressed := c.compressor.EncodeAll(jsonData, nil)

	flags := byte(0)
	payload := compressed
	if c.encrypt {
		flags |= flagEncrypted
		payload, err = c.seal(compressed)
		if err != nil {
			return nil, err
		}
	}

	blob := make([]byte, 0, len(blobMagic)+1+len(payload))
	blob = append(blob, blobMagic...)
	blob = append(blob, flags)
	blob = append(blob, payload...)
	return blob, nil
}

// Decode восстанавливает состояние из блоба.
func (c *Codec) Decode(blob []byte) (*Data, error) {
	if len(blob) < len(blobMagic)+1 {
		return nil, fmt.Errorf("блоб слишком короткий: %d байт", len(blob))
	}
	for i, b := range blobMagic {
		if blob[i] != b {
			return nil, fmt.Errorf("неверная магия сейв-блоба")
		}
	}

	flags := blob[len(blobMagic)]
	payload := blob[len(blobMagic)+1:]

	var err error
	if flags&flagEncrypted != 0 {
		payload, err = c.open(payload)
		if err != nil {
			return nil, fmt.Errorf("ошибка расшифровки сейва: %w", err)
		}
	}

	jsonData, err := c.decompress.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки сейва: %w", err)
	}

	var data Data
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("повреждённый JSON сейва: %w", err)
	}
	if data.Version > CurrentVersion {
		return nil, fmt.Errorf("сейв из будущей версии схемы: %d", data.Version)
	}
	return &data, nil
}

// DecodeOrDefaults — деградация по спецификации ошибок: любой сбой
// декодирования сводится к дефолтному состоянию с записью в лог.
func (c *Codec) DecodeOrDefaults(blob []byte) *Data {
	data, err := c.Decode(blob)
	if err != nil {
		logging.Error("Сейв не прочитан (%v), используется состояние по умолчанию", err)
		return Defaults()
	}
	return data
}

// seal шифрует полезную нагрузку AES-256-GCM, nonce идёт префиксом.
func (c *Codec) seal(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

// open расшифровывает полезную нагрузку.
func (c *Codec) open(sealed []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("зашифрованный блоб короче nonce")
	}
	nonce := sealed[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, sealed[gcm.NonceSize():], nil)
}
