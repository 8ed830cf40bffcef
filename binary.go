package musicpd

import (
	"context"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/pior/musicpd/proto"
)

// Binary is a binary payload (cover art, embedded picture) with the
// metadata the daemon sends along.
type Binary struct {
	// Size is the total size of the object. A single chunk may hold less.
	Size int64
	// Offset is the position of Data in the object.
	Offset int64
	// Type is the MIME type when the daemon knows it (readpicture).
	Type string
	Data []byte
}

func newBinary(resp *proto.Response) *Binary {
	b := &Binary{
		Data: resp.Binary,
		Size: int64(len(resp.Binary)),
	}
	if v, ok := resp.Get("size"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			b.Size = n
		}
	}
	b.Type, _ = resp.Get("type")
	return b
}

// Next returns the offset of the byte following Data.
func (b *Binary) Next() int64 {
	return b.Offset + int64(len(b.Data))
}

// Complete reports whether Data reaches the end of the object.
func (b *Binary) Complete() bool {
	return b.Next() >= b.Size
}

// Sum returns the xxh3 digest of Data.
// Two pictures with the same digest can be considered identical.
func (b *Binary) Sum() uint64 {
	return xxh3.Hash(b.Data)
}

// ReadBinary fetches a whole binary object with a chunked command, albumart
// or readpicture, issuing it with increasing offsets until the announced
// size is assembled.
//
// An object of size 0 (readpicture on a file without picture) returns a
// Binary with no Data.
func (c *Client) ReadBinary(ctx context.Context, command, uri string) (*Binary, error) {
	out := &Binary{}

	for {
		cmd, err := proto.NewCommand(command, uri, out.Next())
		if err != nil {
			return nil, err
		}
		res, err := c.Run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		if res.Kind != KindBinary {
			return nil, &EncodingError{Message: command + " does not return binary data"}
		}

		chunk := res.Binary
		if out.Offset == 0 && len(out.Data) == 0 {
			out.Size = chunk.Size
			out.Type = chunk.Type
			if out.Size > 0 {
				out.Data = make([]byte, 0, out.Size)
			}
		}

		if int64(len(chunk.Data)) > out.Size-out.Next() {
			err := &ProtocolError{Message: "binary chunk larger than the remaining size"}
			c.fail(err)
			return nil, err
		}
		out.Data = append(out.Data, chunk.Data...)

		if out.Complete() || len(chunk.Data) == 0 {
			break
		}
	}

	return out, nil
}
