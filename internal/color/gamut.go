package color

// Mat3 is a row-major 3x3 matrix applied to column vectors.
type Mat3 [9]float32

// Identity3 is the 3x3 identity matrix.
var Identity3 = Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Mul returns m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row*3+col] = m[row*3]*n[col] + m[row*3+1]*n[3+col] + m[row*3+2]*n[6+col]
		}
	}
	return r
}

// Apply returns m*(r,g,b).
func (m Mat3) Apply(r, g, b float32) (float32, float32, float32) {
	return m[0]*r + m[1]*g + m[2]*b,
		m[3]*r + m[4]*g + m[5]*b,
		m[6]*r + m[7]*g + m[8]*b
}

// D65 linear RGB -> XYZ.
var toXYZ = [gamutCount]Mat3{
	GamutSRGB: {
		0.4123908, 0.35758433, 0.1804808,
		0.212639, 0.71516865, 0.07219232,
		0.019330818, 0.11919478, 0.95053214,
	},
	GamutDisplayP3: {
		0.48657095, 0.2656677, 0.19821729,
		0.22897457, 0.69173855, 0.07928691,
		0, 0.04511338, 1.0439444,
	},
	GamutAdobeRGB: {
		0.5767309, 0.185554, 0.1881852,
		0.2973769, 0.6273491, 0.0752741,
		0.0270343, 0.0706872, 0.9911085,
	},
	GamutRec2020: {
		0.636958, 0.1446169, 0.168881,
		0.2627002, 0.6779981, 0.0593017,
		0, 0.0280727, 1.0609851,
	},
}

// XYZ -> D65 linear RGB.
var fromXYZ = [gamutCount]Mat3{
	GamutSRGB: {
		3.24097, -1.5373832, -0.49861076,
		-0.96924365, 1.8759675, 0.041555058,
		0.05563008, -0.20397696, 1.0569715,
	},
	GamutDisplayP3: {
		2.493497, -0.9313836, -0.4027108,
		-0.829489, 1.7626641, 0.023624685,
		0.03584583, -0.07617239, 0.9568845,
	},
	GamutAdobeRGB: {
		2.041369, -0.5649464, -0.3446944,
		-0.969266, 1.8760108, 0.041556,
		0.0134474, -0.1183897, 1.0154096,
	},
	GamutRec2020: {
		1.7166512, -0.3556708, -0.2533663,
		-0.6666844, 1.6164812, 0.0157685,
		0.0176399, -0.0427706, 0.9421031,
	},
}

// GamutMatrix returns the linear-light matrix mapping from -> to.
func GamutMatrix(from, to Gamut) Mat3 {
	if from == to || from >= gamutCount || to >= gamutCount {
		return Identity3
	}
	return fromXYZ[to].Mul(toXYZ[from])
}
