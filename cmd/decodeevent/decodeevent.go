// Package decodeevent implements the `decode-event` sub-command, which
// decodes one event payload given on the command line.
package decodeevent

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/normalizer"
	"github.com/basilisk-nexus/eventnexus/resolver"
	"github.com/basilisk-nexus/eventnexus/schema"
)

// Request names one event and its payload.
type Request struct {
	Kind string
	// Exactly one of Fingerprint and Tag selects the schema version.
	Fingerprint string
	Tag         string
	Payload     string

	Chain              common.ChainName
	SS58Prefix         uint16 // zero uses the chain's prefix
	AddressFormat      common.AddressFormat
	AllowTrailingBytes bool
}

// Output is the decoded event. A failed normalization is reported in
// NormalizeError next to the decoded value.
type Output struct {
	Kind           common.EventKind   `json:"kind"`
	Version        string             `json:"version"`
	Fingerprint    common.Fingerprint `json:"fingerprint"`
	TrailingBytes  int                `json:"trailing_bytes,omitempty"`
	Value          interface{}        `json:"value"`
	RecordType     string             `json:"record_type,omitempty"`
	Record         normalizer.Record  `json:"record,omitempty"`
	NormalizeError string             `json:"normalize_error,omitempty"`
}

var (
	req = Request{
		Chain:         common.ChainBasilisk,
		AddressFormat: common.AddressFormatSS58,
	}
	chain string

	decodeEventCmd = &cobra.Command{
		Use:   "decode-event",
		Short: "Decode a single hex-encoded event payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Chain = common.ChainName(chain)
			out, err := Decode(basilisk.Catalog(), &req)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), out)
		},
	}
)

func (r *Request) addressCodec() (common.AddressCodec, error) {
	codec := common.AddressCodec{Format: r.AddressFormat, Prefix: r.SS58Prefix}
	if codec.Format == "" {
		codec.Format = common.AddressFormatSS58
	}
	if codec.Prefix == 0 {
		prefix, err := r.Chain.SS58Prefix()
		if err != nil {
			return common.AddressCodec{}, fmt.Errorf("%w; pass --ss58-prefix", err)
		}
		codec.Prefix = prefix
	}
	return codec, nil
}

func (r *Request) fingerprint(c *catalog.Catalog, kind common.EventKind) (common.Fingerprint, error) {
	switch {
	case r.Fingerprint != "" && r.Tag != "":
		return common.Fingerprint{}, fmt.Errorf("--fingerprint and --tag are mutually exclusive")
	case r.Fingerprint != "":
		return common.ParseFingerprint(r.Fingerprint)
	case r.Tag != "":
		v, err := c.Version(kind, r.Tag)
		if err != nil {
			return common.Fingerprint{}, err
		}
		return v.Fingerprint, nil
	default:
		return common.Fingerprint{}, fmt.Errorf("one of --fingerprint or --tag is required")
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}

// Decode resolves, decodes and normalizes the event r describes.
func Decode(c *catalog.Catalog, r *Request) (*Output, error) {
	kind, err := common.ParseEventKind(r.Kind)
	if err != nil {
		return nil, err
	}
	fp, err := r.fingerprint(c, kind)
	if err != nil {
		return nil, err
	}
	payload, err := decodeHex(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	addresses, err := r.addressCodec()
	if err != nil {
		return nil, err
	}
	norm, err := normalizer.New(c, normalizer.Options{Addresses: addresses})
	if err != nil {
		return nil, err
	}
	res := resolver.New(c, resolver.Options{AllowTrailingBytes: r.AllowTrailingBytes})

	decoded, err := res.Decode(&common.RawEvent{
		Pallet:      kind.Pallet,
		Event:       kind.Name,
		Fingerprint: fp,
		Payload:     payload,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		Kind:          decoded.Kind(),
		Version:       decoded.Tag(),
		Fingerprint:   fp,
		TrailingBytes: decoded.TrailingBytes(),
		Value:         schema.Plain(decoded.Value()),
	}
	record, err := norm.Normalize(decoded)
	if err != nil {
		out.NormalizeError = err.Error()
		return out, nil
	}
	out.RecordType = record.RecordType()
	out.Record = record
	return out, nil
}

func write(w io.Writer, out *Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Register registers the decode-event sub-command.
func Register(parentCmd *cobra.Command) {
	flags := decodeEventCmd.Flags()
	flags.StringVar(&req.Kind, "kind", "", "event kind, e.g. LBP.PoolUpdated")
	flags.StringVar(&req.Fingerprint, "fingerprint", "", "0x-hex event fingerprint")
	flags.StringVar(&req.Tag, "tag", "", "schema version tag, e.g. V55")
	flags.StringVar(&req.Payload, "payload", "", "hex-encoded SCALE payload")
	flags.StringVar(&chain, "chain", string(common.ChainBasilisk), "chain whose SS58 prefix renders accounts")
	flags.Uint16Var(&req.SS58Prefix, "ss58-prefix", 0, "override the chain's SS58 prefix")
	flags.Var(&req.AddressFormat, "address-format", "account rendering")
	flags.BoolVar(&req.AllowTrailingBytes, "allow-trailing-bytes", false, "accept payloads longer than their layout")
	_ = decodeEventCmd.MarkFlagRequired("kind")

	parentCmd.AddCommand(decodeEventCmd)
}
