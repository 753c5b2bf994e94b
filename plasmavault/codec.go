// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

// Codecs do serialization and deserialization of variable-size rows
// (substrate sets and dependency rows). Fixed-layout entries are handled in
// serializer.go instead.
var (
	Codec codec.Manager
)

// substrateRow is the persisted form of one market's substrate allow-list.
// The order of the set is preserved so replacement is reproducible.
type substrateRow struct {
	Substrates []ids.ID `serialize:"true"`
}

// dependencyRow is the persisted form of one market's dependency-graph row.
type dependencyRow struct {
	Dependencies []MarketID `serialize:"true"`
}

func init() {
	c := linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}

	errs.Add(
		c.RegisterType(&substrateRow{}),
		c.RegisterType(&dependencyRow{}),
	)

	errs.Add(
		Codec.RegisterCodec(CodecVersion, c),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
