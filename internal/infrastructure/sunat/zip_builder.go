package sunat

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// CompressXMLToZip empaqueta el XML firmado en un archivo ZIP en memoria.
// SUNAT exige que el ZIP contenga un único archivo cuyo nombre coincida
// exactamente con el parámetro fileName del sendBill (salvo la extensión);
// cualquier discrepancia rechaza el envío antes de inspeccionar el contenido.
func CompressXMLToZip(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlFilename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtractFromZip devuelve el contenido del primer archivo dentro de un ZIP.
// Se usa para leer el CDR que SUNAT devuelve en applicationResponse.
func ExtractFromZip(zipBytes []byte) (name string, content []byte, err error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", nil, fmt.Errorf("zip: abrir archivo: %w", err)
	}
	if len(zr.File) == 0 {
		return "", nil, fmt.Errorf("zip: archivo vacío")
	}
	f := zr.File[0]
	rc, err := f.Open()
	if err != nil {
		return "", nil, fmt.Errorf("zip: abrir entrada %s: %w", f.Name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return "", nil, fmt.Errorf("zip: leer entrada %s: %w", f.Name, err)
	}
	return f.Name, buf.Bytes(), nil
}
