// Package capability implements the machine's Word/Capability data model
// and the cryptographic sealing that makes capabilities unforgeable.
package capability

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// Capability is the unsealed (perm, base, end, address) tuple. Access
// preconditions (base <= address < end) are enforced at use by the
// machine, not here; subseg is responsible for checking base <= end.
type Capability struct {
	Perm permission.Permission
	Base int
	End  int
	Addr int
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	return fmt.Sprintf("(%s, %d, %d, %d)", c.Perm, c.Base, c.End, c.Addr)
}

// Signed wraps a value with an optional detached signature. A Signed
// value is "valid" only once Verify succeeds against the machine's
// verifying key; the zero value (no signature) never verifies.
type Signed struct {
	Cap Capability
	Sig []byte // nil means unsigned
}

// Unsigned returns a Signed wrapping cap with no signature, as used for
// capability literals read from configuration or program files on disk.
func Unsigned(cap Capability) Signed {
	return Signed{Cap: cap}
}

// KeyPair is the machine's private signing key and its public
// counterpart. Generated once per machine instance and never
// serialised; see spec.md §3 Machine.
type KeyPair struct {
	Signing   *rsa.PrivateKey
	Verifying *rsa.PublicKey
}

// NewKeyPair generates a fresh RSA-PSS key pair. The reference uses a
// 1024-bit key; this is a deliberate speed trade-off, not a security
// claim (spec.md §4.2), and is kept here for fidelity with the ported
// behaviour.
func NewKeyPair(bits int) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("capability: generating key pair: %w", err)
	}
	return &KeyPair{Signing: priv, Verifying: &priv.PublicKey}, nil
}

// digest computes the signable hash of a capability tuple. gob encoding
// gives us a stable byte representation of the Go struct without hand
// rolling a wire format, mirroring the role bincode plays in the
// reference implementation.
func digest(cap Capability) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cap); err != nil {
		return nil, fmt.Errorf("capability: encoding for signature: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return sum[:], nil
}

// Sign produces a Signed capability bearing a signature over cap,
// verifiable with kp.Verifying.
func Sign(kp *KeyPair, cap Capability) (Signed, error) {
	h, err := digest(cap)
	if err != nil {
		return Signed{}, err
	}
	sig, err := rsa.SignPSS(rand.Reader, kp.Signing, crypto.SHA256, h, nil)
	if err != nil {
		return Signed{}, fmt.Errorf("capability: signing: %w", err)
	}
	return Signed{Cap: cap, Sig: sig}, nil
}

// ErrUnverified is returned by Verify when the signature does not
// verify (or is absent).
var ErrUnverified = errors.New("capability: signature does not verify")

// Verify returns the wrapped capability iff its signature verifies
// against kp.Verifying. A Signed value with no signature (Sig == nil)
// always fails to verify.
func Verify(kp *KeyPair, s Signed) (Capability, error) {
	if s.Sig == nil {
		return Capability{}, ErrUnverified
	}
	h, err := digest(s.Cap)
	if err != nil {
		return Capability{}, err
	}
	if err := rsa.VerifyPSS(kp.Verifying, crypto.SHA256, h, s.Sig, nil); err != nil {
		return Capability{}, ErrUnverified
	}
	return s.Cap, nil
}

// ReSign signs cap; it is the same operation as Sign. It takes no
// earlier Signed value and verifies nothing itself. pkg/machine does not
// call it: updPC/restrict/subseg/lea verify the source capability with
// Verify and seal the derived one with Sign.
func ReSign(kp *KeyPair, cap Capability) (Signed, error) {
	return Sign(kp, cap)
}
