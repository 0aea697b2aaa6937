// Package healpix implements the nested HEALPix pixelisation needed to build
// multi-order coverage maps.
package healpix

import (
	"math"

	"go-fits-inspector/internal/skycoord"
)

// MaxOrder is the deepest order supported with 64-bit nested indices.
const MaxOrder = 29

var (
	jrll = [12]int{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}
	jpll = [12]int{1, 3, 5, 7, 0, 2, 4, 6, 1, 3, 5, 7}
)

// NSide returns the number of pixels along a base-face side at order.
func NSide(order int) int64 {
	return int64(1) << uint(order)
}

// NPix returns the number of pixels covering the sphere at order.
func NPix(order int) int64 {
	n := NSide(order)
	return 12 * n * n
}

// Ang2Pix returns the nested index of the pixel containing c at order.
func Ang2Pix(order int, c skycoord.Coord) int64 {
	z := math.Sin(c.Lat * math.Pi / 180)
	phi := c.Lon * math.Pi / 180
	return zphi2nest(order, z, phi)
}

// Vec2Pix returns the nested index of the pixel containing v at order.
func Vec2Pix(order int, v skycoord.Vector) int64 {
	v = v.Normalize()
	return zphi2nest(order, v[2], math.Atan2(v[1], v[0]))
}

func zphi2nest(order int, z, phi float64) int64 {
	nside := NSide(order)
	za := math.Abs(z)
	tt := math.Mod(phi, 2*math.Pi)
	if tt < 0 {
		tt += 2 * math.Pi
	}
	tt /= math.Pi / 2 // in [0,4)

	var face, ix, iy int64
	if za <= 2.0/3.0 {
		temp1 := float64(nside) * (0.5 + tt)
		temp2 := float64(nside) * (z * 0.75)
		jp := int64(temp1 - temp2)
		jm := int64(temp1 + temp2)
		ifp := jp >> uint(order)
		ifm := jm >> uint(order)
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
		ix = jm & (nside - 1)
		iy = nside - (jp & (nside - 1)) - 1
	} else {
		ntt := int64(tt)
		if ntt > 3 {
			ntt = 3
		}
		tp := tt - float64(ntt)
		tmp := float64(nside) * math.Sqrt(3*(1-za))

		jp := int64(tp * tmp)
		jm := int64((1 - tp) * tmp)
		if jp > nside-1 {
			jp = nside - 1
		}
		if jm > nside-1 {
			jm = nside - 1
		}
		if z >= 0 {
			face = ntt
			ix = nside - jm - 1
			iy = nside - jp - 1
		} else {
			face = ntt + 8
			ix = jp
			iy = jm
		}
	}
	return xyf2nest(order, ix, iy, face)
}

// Center returns the centre of a nested pixel.
func Center(order int, ipix int64) skycoord.Vector {
	ix, iy, face := nest2xyf(order, ipix)
	return xyf2vec(order, float64(ix)+0.5, float64(iy)+0.5, face)
}

// Vertices returns the four corners of a nested pixel, going round the pixel
// from its southern corner.
func Vertices(order int, ipix int64) [4]skycoord.Vector {
	ix, iy, face := nest2xyf(order, ipix)
	x, y := float64(ix), float64(iy)
	return [4]skycoord.Vector{
		xyf2vec(order, x, y, face),
		xyf2vec(order, x+1, y, face),
		xyf2vec(order, x+1, y+1, face),
		xyf2vec(order, x, y+1, face),
	}
}

// xyf2vec maps continuous face coordinates (in pixel units) to a unit vector.
func xyf2vec(order int, px, py float64, face int64) skycoord.Vector {
	nside := float64(NSide(order))
	x := px / nside
	y := py / nside

	jr := float64(jrll[face]) - x - y
	var nr, z float64
	switch {
	case jr < 1:
		nr = jr
		z = 1 - nr*nr/3
	case jr > 3:
		nr = 4 - jr
		z = nr*nr/3 - 1
	default:
		nr = 1
		z = (2 - jr) * 2 / 3
	}

	tmp := float64(jpll[face])*nr + x - y
	if tmp < 0 {
		tmp += 8
	}
	if tmp >= 8 {
		tmp -= 8
	}
	phi := 0.0
	if nr > 1e-15 {
		phi = (math.Pi / 4) * tmp / nr
	}

	sth := math.Sqrt((1 - z) * (1 + z))
	return skycoord.Vector{sth * math.Cos(phi), sth * math.Sin(phi), z}
}

func xyf2nest(order int, ix, iy, face int64) int64 {
	return face<<(2*uint(order)) + spread(ix) + spread(iy)<<1
}

func nest2xyf(order int, ipix int64) (ix, iy, face int64) {
	npface := int64(1) << (2 * uint(order))
	face = ipix / npface
	rem := ipix & (npface - 1)
	return compress(rem), compress(rem >> 1), face
}

// spread interleaves zero bits between the low 32 bits of v.
func spread(v int64) int64 {
	x := uint64(v) & 0xffffffff
	x = (x | x<<16) & 0x0000ffff0000ffff
	x = (x | x<<8) & 0x00ff00ff00ff00ff
	x = (x | x<<4) & 0x0f0f0f0f0f0f0f0f
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return int64(x)
}

// compress gathers the even bits of v.
func compress(v int64) int64 {
	x := uint64(v) & 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0f0f0f0f0f0f0f0f
	x = (x | x>>4) & 0x00ff00ff00ff00ff
	x = (x | x>>8) & 0x0000ffff0000ffff
	x = (x | x>>16) & 0x00000000ffffffff
	return int64(x)
}
