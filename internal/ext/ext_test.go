// Released under an MIT license. See LICENSE.

package ext

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhencke/ren/internal/core"
	"github.com/rhencke/ren/internal/device"
	"github.com/rhencke/ren/internal/scan"
)

func evalText(t *testing.T, ip *core.Interp, source string) core.Cell {
	t.Helper()

	var out core.Cell

	load := func(s string) (*core.Series, error) {
		return scan.Load(ip, "test", s)
	}

	require.NoError(t, ip.DoText(load, source, &out))

	return out
}

func TestLoadedNativesLandInLib(t *testing.T) {
	ip := core.New()
	r := NewRegistry(ip)

	require.NoError(t, r.Load(&Extension{
		Name: "math-extras",
		Natives: []Native{{
			Name: "square",
			Params: []core.ParamSpec{
				core.Param("n", core.ParamNormal, core.KindInteger.Mask()),
			},
			Dispatch: func(f *core.Frame) core.Verdict {
				n := f.Arg(1).Int64()
				core.InitInteger(f.Out(), n*n)

				return core.VerdictValue
			},
		}},
	}))

	out := evalText(t, ip, "square 12")
	assert.EqualValues(t, 144, out.Int64())
}

func TestLoadingTwiceIsRejected(t *testing.T) {
	r := NewRegistry(core.New())

	x := &Extension{Name: "dup"}
	require.NoError(t, r.Load(x))
	assert.ErrorIs(t, r.Load(x), ErrDupExtension)
}

func TestRegisteredKindGetsDatatypeAndMake(t *testing.T) {
	ip := core.New()
	r := NewRegistry(ip)

	require.NoError(t, r.Load(&Extension{
		Name: "geometry",
		Kinds: []*core.CustomKind{{
			Name: "point",
			Mold: func(ip *core.Interp, c *core.Cell) string {
				x := core.ArrayAt(c.Node(), 0).Int64()
				y := core.ArrayAt(c.Node(), 1).Int64()

				return fmt.Sprintf("make point! [%d %d]", x, y)
			},
			Make: func(ip *core.Interp, out, spec *core.Cell, k core.Kind) {
				a := ip.Manage(ip.MakeArray(2))

				var v core.Cell

				core.InitInteger(&v, 0)
				ip.AppendValue(a, &v)
				ip.AppendValue(a, &v)

				if spec.Is(core.KindBlock) && core.ArrayLen(spec.Node()) >= 2 {
					*core.ArrayAt(a, 0) = *core.ArrayAt(spec.Node(), 0)
					*core.ArrayAt(a, 1) = *core.ArrayAt(spec.Node(), 1)
				}

				core.InitCustom(out, k, a)
			},
		}},
	}))

	k, ok := r.Kind("point")
	require.True(t, ok)
	assert.GreaterOrEqual(t, k, core.KindCustom0)

	out := evalText(t, ip, "type-of make point! [3 4]")
	assert.Equal(t, k, out.Datatype())

	molded := evalText(t, ip, "mold make point! [3 4]")
	assert.Equal(t, "make point! [3 4]", ip.FormOf(&molded))
}

func TestRegisteredDevicesArePollable(t *testing.T) {
	r := NewRegistry(core.New())

	require.NoError(t, r.Load(&Extension{
		Name:    "io",
		Devices: []*device.Table{{Name: "echo"}},
	}))

	d, err := r.Device("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", d.Name())
	assert.Equal(t, 0, r.PollAll())

	_, err = r.Device("missing")
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestCodecIdentifyChain(t *testing.T) {
	r := NewRegistry(core.New())

	require.NoError(t, r.Load(&Extension{
		Name: "codecs",
		Codecs: []Codec{{
			Name:     "png",
			Suffixes: []string{".png"},
			Identify: func(data []byte) bool {
				return len(data) >= 4 && string(data[:4]) == "\x89PNG"
			},
		}},
	}))

	c, err := r.IdentifyCodec([]byte("\x89PNG\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "png", c.Name)

	_, err = r.IdentifyCodec([]byte("GIF89a"))
	assert.ErrorIs(t, err, ErrNoCodec)

	c, err = r.CodecNamed("png")
	require.NoError(t, err)
	assert.Equal(t, "png", c.Name)
}
