package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/jedib0t/go-pretty/v6/table"
)

/**
 * Convert a struct to an ordered map keyed by its json tags
 * @param {interface{}} v - Struct value
 * @returns {*orderedmap.OrderedMap, error} Map preserving field declaration order
 */
func StructToOrderedMap(v interface{}) (*orderedmap.OrderedMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	om := orderedmap.New()
	if err := json.Unmarshal(data, om); err != nil {
		return nil, err
	}
	return om, nil
}

/**
 * Render rows as a table
 * @param {io.Writer} w - Output
 * @param {[]*orderedmap.OrderedMap} dataList - Rows, the first row decides the columns
 */
func FprintFormat(w io.Writer, dataList []*orderedmap.OrderedMap) {
	if len(dataList) == 0 {
		return
	}
	keys := dataList[0].Keys()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(keys))
	for _, k := range keys {
		header = append(header, strings.ToUpper(k))
	}
	t.AppendHeader(header)

	for _, om := range dataList {
		row := make(table.Row, 0, len(keys))
		for _, k := range keys {
			v, ok := om.Get(k)
			if !ok || v == nil {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprint(v))
		}
		t.AppendRow(row)
	}
	t.Render()
}
