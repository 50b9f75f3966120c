package handoff

import (
	"fmt"
	"io"

	"github.com/leonelquinteros/gotext"
)

// WritePO writes rows as a PO file with msgid set to the dotted key and
// msgstr to the target text. Keys without a target value are written
// untranslated.
func WritePO(w io.Writer, rows []Row) error {
	po := gotext.NewPo()
	for _, r := range rows {
		po.Set(r.Key, r.Target)
	}
	data, err := po.MarshalText()
	if err != nil {
		return fmt.Errorf("encoding PO: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ReadPO parses PO data and returns the translated texts of the given keys.
// Keys missing from the file or untranslated there are left out.
func ReadPO(data []byte, keys []string) map[string]string {
	po := gotext.NewPo()
	po.Parse(data)

	out := make(map[string]string)
	for _, k := range keys {
		if po.IsTranslated(k) {
			out[k] = po.Get(k)
		}
	}
	return out
}
