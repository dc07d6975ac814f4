package fetcher

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/streamgrab/streamgrab/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

// encrypt pads with PKCS#7 and encrypts like an HLS packager would.
func encrypt(key, iv, plain []byte) []byte {
	n := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append(append([]byte{}, plain...), bytes.Repeat([]byte{byte(n)}, n)...)

	block := lo.Must(aes.NewCipher(key))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out
}

type stream struct {
	files    map[string][]byte
	hits     map[string]*int32
	referers []string
}

func newStream(files map[string]string) *stream {
	s := &stream{files: make(map[string][]byte), hits: make(map[string]*int32)}
	for path, body := range files {
		s.files[path] = []byte(body)
		s.hits[path] = new(int32)
	}
	return s
}

func (s *stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.referers = append(s.referers, r.Header.Get("Referer"))
	body, ok := s.files[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	atomic.AddInt32(s.hits[r.URL.Path], 1)
	_, _ = w.Write(body)
}

// flushFailFs hands out files whose final flush fails.
type flushFailFs struct {
	afero.Fs
}

func (f flushFailFs) Create(name string) (afero.File, error) {
	file, err := f.Fs.Create(name)
	if err != nil {
		return nil, err
	}
	return flushFailFile{file}, nil
}

type flushFailFile struct {
	afero.File
}

func (f flushFailFile) Close() error {
	_ = f.File.Close()
	return errors.New("disk full")
}

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:4.0,
seg0.ts
#EXTINF:4.0,
seg1.ts
#EXTINF:4.0,
seg2.ts
#EXT-X-ENDLIST
`

func TestNativeFetch(t *testing.T) {
	Convey("Given a master playlist with two variants", t, func() {
		s := newStream(map[string]string{
			"/master.m3u8": "#EXTM3U\n" +
				"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\nlow/index.m3u8\n" +
				"#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720\nhigh/index.m3u8\n",
			"/low/index.m3u8":  mediaPlaylist,
			"/high/index.m3u8": mediaPlaylist,
			"/low/seg0.ts":     "L0",
			"/high/seg0.ts":    "H0",
			"/high/seg1.ts":    "H1",
			"/high/seg2.ts":    "H2",
		})
		server := httptest.NewServer(s)
		defer server.Close()

		var progress [][2]int
		fetcher := NewNative(Options{
			Retries:  1,
			Client:   server.Client(),
			Progress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
		})

		Convey("When it is fetched", func() {
			path, err := fetcher.Fetch(context.Background(), Request{
				ManifestURL: server.URL + "/master.m3u8",
				Output:      "/downloads/Show",
				Referer:     "https://site.example/watch/1",
			})
			So(err, ShouldBeNil)

			Convey("Then the highest bandwidth variant is concatenated into a .ts file", func() {
				So(path, ShouldEqual, "/downloads/Show.ts")
				data := lo.Must(filesystem.API().ReadFile(path))
				So(string(data), ShouldEqual, "H0H1H2")
				So(atomic.LoadInt32(s.hits["/low/seg0.ts"]), ShouldEqual, 0)
			})

			Convey("And progress is reported per segment", func() {
				So(progress, ShouldResemble, [][2]int{{1, 3}, {2, 3}, {3, 3}})
			})

			Convey("And the referer is sent along", func() {
				So(lo.Uniq(s.referers), ShouldResemble, []string{"https://site.example/watch/1"})
			})
		})
	})

	Convey("Given a media playlist with a missing segment", t, func() {
		s := newStream(map[string]string{
			"/index.m3u8": mediaPlaylist,
			"/seg0.ts":    "A",
			"/seg2.ts":    "C",
		})
		server := httptest.NewServer(s)
		defer server.Close()

		fetcher := NewNative(Options{Retries: 2, Client: server.Client()})

		Convey("The fetch fails and leaves no file behind", func() {
			_, err := fetcher.Fetch(context.Background(), Request{
				ManifestURL: server.URL + "/index.m3u8",
				Output:      "/downloads/Broken",
			})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "segment 1")
			So(lo.Must(filesystem.API().Exists("/downloads/Broken.ts")), ShouldBeFalse)
			So(atomic.LoadInt32(s.hits["/seg2.ts"]), ShouldEqual, 0)
		})
	})

	Convey("Given a manifest that does not exist", t, func() {
		server := httptest.NewServer(newStream(nil))
		defer server.Close()

		fetcher := NewNative(Options{Client: server.Client()})

		Convey("The fetch fails before creating anything", func() {
			_, err := fetcher.Fetch(context.Background(), Request{
				ManifestURL: server.URL + "/gone.m3u8",
				Output:      "/downloads/Gone",
			})
			So(err, ShouldNotBeNil)
			So(lo.Must(filesystem.API().Exists("/downloads/Gone.ts")), ShouldBeFalse)
		})
	})
}

func TestNativeFetchEncrypted(t *testing.T) {
	Convey("Given an AES-128 playlist", t, func() {
		key := []byte("0123456789abcdef")
		explicitIV := bytes.Repeat([]byte{7}, aes.BlockSize)

		// The second segment derives its IV from the media sequence number.
		seqIV := make([]byte, aes.BlockSize)
		seqIV[15] = 11

		s := newStream(map[string]string{
			"/key.bin": string(key),
			"/index.m3u8": fmt.Sprintf(`#EXTM3U
#EXT-X-TARGETDURATION:4
#EXT-X-MEDIA-SEQUENCE:10
#EXT-X-KEY:METHOD=AES-128,URI="key.bin",IV=0x%s
#EXTINF:4.0,
a.ts
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:4.0,
b.ts
#EXT-X-ENDLIST
`, hex.EncodeToString(explicitIV)),
			"/a.ts": string(encrypt(key, explicitIV, []byte("first segment"))),
			"/b.ts": string(encrypt(key, seqIV, []byte("second"))),
		})
		server := httptest.NewServer(s)
		defer server.Close()

		fetcher := NewNative(Options{Client: server.Client()})

		Convey("Segments are decrypted and the key is fetched once", func() {
			path, err := fetcher.Fetch(context.Background(), Request{
				ManifestURL: server.URL + "/index.m3u8",
				Output:      "/downloads/Secret",
			})
			So(err, ShouldBeNil)
			So(string(lo.Must(filesystem.API().ReadFile(path))), ShouldEqual, "first segmentsecond")
			So(atomic.LoadInt32(s.hits["/key.bin"]), ShouldEqual, 1)
		})
	})
}

func TestNativeFetchFragmentedMP4(t *testing.T) {
	Convey("Given a playlist with an init map", t, func() {
		s := newStream(map[string]string{
			"/index.m3u8": `#EXTM3U
#EXT-X-VERSION:7
#EXT-X-TARGETDURATION:4
#EXT-X-MAP:URI="init.mp4"
#EXTINF:4.0,
s0.m4s
#EXTINF:4.0,
s1.m4s
#EXT-X-ENDLIST
`,
			"/init.mp4": "INIT",
			"/s0.m4s":   "-0",
			"/s1.m4s":   "-1",
		})
		server := httptest.NewServer(s)
		defer server.Close()

		fetcher := NewNative(Options{Client: server.Client()})

		Convey("The init section is written once ahead of the fragments", func() {
			path, err := fetcher.Fetch(context.Background(), Request{
				ManifestURL: server.URL + "/index.m3u8",
				Output:      "/downloads/Fragmented",
			})
			So(err, ShouldBeNil)
			So(path, ShouldEqual, "/downloads/Fragmented.mp4")
			So(string(lo.Must(filesystem.API().ReadFile(path))), ShouldEqual, "INIT-0-1")
		})
	})
}

func TestUnpad(t *testing.T) {
	Convey("unpad", t, func() {
		So(unpad([]byte{1, 2, 3, 2, 2}), ShouldResemble, []byte{1, 2, 3})
		So(unpad([]byte{1, 2, 3}), ShouldResemble, []byte{1, 2, 3})
		So(unpad([]byte{}), ShouldResemble, []byte{})
	})
}

func TestParseIV(t *testing.T) {
	Convey("parseIV", t, func() {
		Convey("derives the IV from the sequence number", func() {
			iv, err := parseIV("", 258)
			So(err, ShouldBeNil)
			So(iv[14:], ShouldResemble, []byte{1, 2})
			So(iv[:14], ShouldResemble, make([]byte, 14))
		})

		Convey("accepts a hex IV with prefix", func() {
			iv, err := parseIV("0x000102030405060708090A0B0C0D0E0F", 0)
			So(err, ShouldBeNil)
			So(iv[15], ShouldEqual, 15)
		})

		Convey("rejects short IVs", func() {
			_, err := parseIV("0x0102", 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNativeFetchCloseFailure(t *testing.T) {
	Convey("Given a backend whose files fail to flush", t, func() {
		filesystem.SetFs(flushFailFs{afero.NewMemMapFs()})
		defer filesystem.SetMemMapFs()

		server := httptest.NewServer(newStream(map[string]string{
			"/index.m3u8": mediaPlaylist,
			"/seg0.ts":    "A",
			"/seg1.ts":    "B",
			"/seg2.ts":    "C",
		}))
		defer server.Close()

		Convey("The fetch fails and removes the file", func() {
			path, err := NewNative(Options{Client: server.Client()}).Fetch(context.Background(), Request{
				ManifestURL: server.URL + "/index.m3u8",
				Output:      "/downloads/Flush",
			})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "disk full")
			So(path, ShouldBeEmpty)
			So(lo.Must(filesystem.API().Exists("/downloads/Flush.ts")), ShouldBeFalse)
		})
	})
}
