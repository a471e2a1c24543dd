package engine

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"image"
	"image/png"
	"strconv"
)

// The SVG output is a vector container around a single embedded PNG; no
// tracing happens.
type svgDocument struct {
	XMLName xml.Name `xml:"svg"`
	Xmlns   string   `xml:"xmlns,attr"`
	Width   int      `xml:"width,attr"`
	Height  int      `xml:"height,attr"`
	ViewBox string   `xml:"viewBox,attr"`
	Image   svgImage `xml:"image"`
}

type svgImage struct {
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	Href   string `xml:"href,attr"`
}

const svgNamespace = "http://www.w3.org/2000/svg"

func wrapSVG(img image.Image, w, h int) ([]byte, error) {
	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return nil, err
	}

	doc := svgDocument{
		Xmlns:   svgNamespace,
		Width:   w,
		Height:  h,
		ViewBox: "0 0 " + strconv.Itoa(w) + " " + strconv.Itoa(h),
		Image: svgImage{
			Width:  w,
			Height: h,
			Href:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(raster.Bytes()),
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
