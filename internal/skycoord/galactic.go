package skycoord

// icrsToGalactic rotates ICRS unit vectors into the galactic frame. Rows are
// the galactic x, y and z axes expressed in ICRS (Hipparcos definition).
var icrsToGalactic = [3][3]float64{
	{-0.0548755604162154, -0.8734370902348850, -0.4838350155487132},
	{+0.4941094278755837, -0.4448296299600112, +0.7469822444972189},
	{-0.8676661490190047, -0.1980763734312015, +0.4559837761750669},
}

// GalacticToICRS converts galactic (l, b) in degrees to ICRS (RA, Dec).
func GalacticToICRS(gal Coord) Coord {
	g := gal.ToVector()
	var out Vector
	for i := 0; i < 3; i++ {
		out[i] = icrsToGalactic[0][i]*g[0] + icrsToGalactic[1][i]*g[1] + icrsToGalactic[2][i]*g[2]
	}
	return out.Coord()
}

// ICRSToGalactic converts ICRS (RA, Dec) in degrees to galactic (l, b).
func ICRSToGalactic(eq Coord) Coord {
	e := eq.ToVector()
	var out Vector
	for i := 0; i < 3; i++ {
		out[i] = icrsToGalactic[i][0]*e[0] + icrsToGalactic[i][1]*e[1] + icrsToGalactic[i][2]*e[2]
	}
	return out.Coord()
}

// ToICRS converts a coordinate expressed in frame to ICRS. Equatorial frames
// other than galactic are returned unchanged.
func ToICRS(c Coord, frame Frame) Coord {
	if frame == Galactic {
		return GalacticToICRS(c)
	}
	return Coord{Lon: NormalizeLon(c.Lon), Lat: c.Lat}
}
