package catalog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// This file implements the flat, length-delimited binary encoding used
// to persist catalog snapshots (spec §4.C). Every record is a varint
// byte-length followed by a type tag and a fixed field order for that
// type; there is no schema evolution support and no generated IDL, only
// hand-written encode/decode pairs mirroring the struct field order in
// model.go.

const (
	recordTypeProgram byte = 1
	recordTypeVideo   byte = 2
)

type codecWriter struct {
	buf []byte
}

func (w *codecWriter) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}

func (w *codecWriter) writeUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

func (w *codecWriter) writeInt64(v int64) {
	w.writeUvarint(uint64(v))
}

func (w *codecWriter) writeUint64(v uint64) {
	w.writeUvarint(v)
}

func (w *codecWriter) writeBytes(b []byte) {
	w.writeUvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *codecWriter) writeString(s string) {
	w.writeBytes([]byte(s))
}

func (w *codecWriter) writeBool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

type codecReader struct {
	r   io.Reader
	pos int64
}

func (r *codecReader) readByte() (byte, error) {
	var b [1]byte
	n, err := io.ReadFull(r.r, b[:])
	r.pos += int64(n)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *codecReader) readUvarint() (uint64, error) {
	var x uint64
	var s uint
	for i := 0; i < binary.MaxVarintLen64; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, fmt.Errorf("catalog: varint overflow at byte %d", r.pos)
}

func (r *codecReader) readUint16() (uint16, error) {
	var b [2]byte
	n, err := io.ReadFull(r.r, b[:])
	r.pos += int64(n)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *codecReader) readInt64() (int64, error) {
	v, err := r.readUvarint()
	return int64(v), err
}

func (r *codecReader) readUint64() (uint64, error) {
	return r.readUvarint()
}

func (r *codecReader) readBytes() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(r.r, buf)
	r.pos += int64(read)
	if err != nil {
		return nil, fmt.Errorf("catalog: truncated field at byte %d: %w", r.pos, err)
	}
	return buf, nil
}

func (r *codecReader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *codecReader) readBool() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func encodeProgram(p *Program) []byte {
	w := &codecWriter{}
	w.writeString(p.ID)
	w.writeUint16(p.NetworkID)
	w.writeUint16(p.ServiceID)
	w.writeUint16(p.EventID)
	w.writeInt64(p.StartAt.UnixNano())
	w.writeInt64(int64(p.Duration))
	w.writeString(p.Name)
	w.writeString(p.Description)

	w.writeUvarint(uint64(len(p.Extended)))
	for _, ef := range p.Extended {
		w.writeString(ef.Key)
		w.writeString(ef.Value)
	}

	w.writeBool(p.Service != nil)
	if p.Service != nil {
		svc := p.Service
		w.writeUint16(svc.NetworkID)
		w.writeUint16(svc.ServiceID)
		w.writeString(svc.Name)
		w.writeBool(svc.Channel != nil)
		if svc.Channel != nil {
			w.writeString(string(svc.Channel.Type))
			w.writeString(svc.Channel.ChannelCode)
			w.writeString(svc.Channel.Name)
		}
	}

	w.writeUvarint(uint64(len(p.Metadata)))
	for k, v := range p.Metadata {
		w.writeString(k)
		w.writeString(v)
	}

	w.writeUvarint(uint64(len(p.VideoIDs)))
	for _, id := range p.VideoIDs {
		w.writeString(id)
	}

	return w.buf
}

func decodeProgram(data []byte) (*Program, error) {
	r := &codecReader{r: newByteReader(data)}
	p := &Program{}
	var err error

	if p.ID, err = r.readString(); err != nil {
		return nil, fmt.Errorf("program.id: %w", err)
	}
	if p.NetworkID, err = r.readUint16(); err != nil {
		return nil, fmt.Errorf("program.network_id: %w", err)
	}
	if p.ServiceID, err = r.readUint16(); err != nil {
		return nil, fmt.Errorf("program.service_id: %w", err)
	}
	if p.EventID, err = r.readUint16(); err != nil {
		return nil, fmt.Errorf("program.event_id: %w", err)
	}
	startAtNano, err := r.readInt64()
	if err != nil {
		return nil, fmt.Errorf("program.start_at: %w", err)
	}
	p.StartAt = time.Unix(0, startAtNano).UTC()
	durationNano, err := r.readInt64()
	if err != nil {
		return nil, fmt.Errorf("program.duration: %w", err)
	}
	p.Duration = time.Duration(durationNano)
	if p.Name, err = r.readString(); err != nil {
		return nil, fmt.Errorf("program.name: %w", err)
	}
	if p.Description, err = r.readString(); err != nil {
		return nil, fmt.Errorf("program.description: %w", err)
	}

	extCount, err := r.readUvarint()
	if err != nil {
		return nil, fmt.Errorf("program.extended.count: %w", err)
	}
	if extCount > 0 {
		p.Extended = make([]ExtendedField, 0, extCount)
		for i := uint64(0); i < extCount; i++ {
			k, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("program.extended[%d].key: %w", i, err)
			}
			v, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("program.extended[%d].value: %w", i, err)
			}
			p.Extended = append(p.Extended, ExtendedField{Key: k, Value: v})
		}
	}

	hasService, err := r.readBool()
	if err != nil {
		return nil, fmt.Errorf("program.service.present: %w", err)
	}
	if hasService {
		svc := &Service{}
		if svc.NetworkID, err = r.readUint16(); err != nil {
			return nil, fmt.Errorf("program.service.network_id: %w", err)
		}
		if svc.ServiceID, err = r.readUint16(); err != nil {
			return nil, fmt.Errorf("program.service.service_id: %w", err)
		}
		if svc.Name, err = r.readString(); err != nil {
			return nil, fmt.Errorf("program.service.name: %w", err)
		}
		hasChannel, err := r.readBool()
		if err != nil {
			return nil, fmt.Errorf("program.service.channel.present: %w", err)
		}
		if hasChannel {
			ch := &Channel{}
			chType, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("program.service.channel.type: %w", err)
			}
			ch.Type = ChannelType(chType)
			if ch.ChannelCode, err = r.readString(); err != nil {
				return nil, fmt.Errorf("program.service.channel.channel_code: %w", err)
			}
			if ch.Name, err = r.readString(); err != nil {
				return nil, fmt.Errorf("program.service.channel.name: %w", err)
			}
			svc.Channel = ch
		}
		p.Service = svc
	}

	metaCount, err := r.readUvarint()
	if err != nil {
		return nil, fmt.Errorf("program.metadata.count: %w", err)
	}
	if metaCount > 0 {
		p.Metadata = make(map[string]string, metaCount)
		for i := uint64(0); i < metaCount; i++ {
			k, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("program.metadata[%d].key: %w", i, err)
			}
			v, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("program.metadata[%d].value: %w", i, err)
			}
			p.Metadata[k] = v
		}
	}

	videoCount, err := r.readUvarint()
	if err != nil {
		return nil, fmt.Errorf("program.video_ids.count: %w", err)
	}
	if videoCount > 0 {
		p.VideoIDs = make([]string, 0, videoCount)
		for i := uint64(0); i < videoCount; i++ {
			id, err := r.readString()
			if err != nil {
				return nil, fmt.Errorf("program.video_ids[%d]: %w", i, err)
			}
			p.VideoIDs = append(p.VideoIDs, id)
		}
	}

	return p, nil
}

func encodeVideo(v *Video) []byte {
	w := &codecWriter{}
	w.writeString(v.ID)
	w.writeString(v.ProviderID)
	w.writeString(v.ProgramID)
	w.writeUint64(v.TotalLength)
	w.writeString(v.FileName)
	w.writeString(v.OriginalFileName)
	w.writeString(v.MimeType)
	w.writeString(v.StorageID)
	w.writeString(v.StoragePrefix)
	w.writeBytes(v.ThumbnailBytes)
	w.writeString(v.ThumbnailMimeType)
	return w.buf
}

func decodeVideo(data []byte) (*Video, error) {
	r := &codecReader{r: newByteReader(data)}
	v := &Video{}
	var err error

	if v.ID, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.id: %w", err)
	}
	if v.ProviderID, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.provider_id: %w", err)
	}
	if v.ProgramID, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.program_id: %w", err)
	}
	if v.TotalLength, err = r.readUint64(); err != nil {
		return nil, fmt.Errorf("video.total_length: %w", err)
	}
	if v.FileName, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.file_name: %w", err)
	}
	if v.OriginalFileName, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.original_file_name: %w", err)
	}
	if v.MimeType, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.mime_type: %w", err)
	}
	if v.StorageID, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.storage_id: %w", err)
	}
	if v.StoragePrefix, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.storage_prefix: %w", err)
	}
	if v.ThumbnailBytes, err = r.readBytes(); err != nil {
		return nil, fmt.Errorf("video.thumbnail_bytes: %w", err)
	}
	if v.ThumbnailMimeType, err = r.readString(); err != nil {
		return nil, fmt.Errorf("video.thumbnail_mime_type: %w", err)
	}
	return v, nil
}

// writeRecord appends a single length-delimited record (type tag +
// payload) to w.
func writeRecord(w *bufio.Writer, recType byte, payload []byte) error {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(payload)+1))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}
	if err := w.WriteByte(recType); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readRecord reads one length-delimited record from r, returning
// io.EOF when the stream ends cleanly between records.
func readRecord(r *bufio.Reader) (recType byte, payload []byte, pos int64, err error) {
	cr := &codecReader{r: r}
	length, err := cr.readUvarint()
	if err != nil {
		if err == io.EOF {
			return 0, nil, 0, io.EOF
		}
		return 0, nil, cr.pos, fmt.Errorf("record length: %w", err)
	}
	if length == 0 {
		return 0, nil, cr.pos, fmt.Errorf("record at byte %d has zero length", cr.pos)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, cr.pos, fmt.Errorf("record body at byte %d: %w", cr.pos, err)
	}
	return body[0], body[1:], cr.pos, nil
}

type byteReaderAt struct {
	data []byte
	off  int
}

func newByteReader(data []byte) io.Reader {
	return &byteReaderAt{data: data}
}

func (b *byteReaderAt) Read(p []byte) (int, error) {
	if b.off >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += n
	return n, nil
}
