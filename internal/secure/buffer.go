// Package secure wraps memguard to keep the vault logon credential
// encrypted at rest in memory for the lifetime of a run.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds a sensitive value in an encrypted memguard enclave.
// The plaintext only exists while Open()ed; callers must destroy the
// returned locked buffer when done.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex

	destroyed bool
}

// NewBuffer copies the given bytes into a protected memory region.
// The caller should zero its own copy afterwards.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the value into a locked buffer. The caller MUST call
// Destroy() on the returned buffer to wipe the plaintext.
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	use(locked.String())
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// Destroy prevents further use of the buffer. Idempotent. The enclave's
// encrypted content is left to the garbage collector; call
// memguard.Purge() at process exit for full cleanup.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
