// Package jsonvalue holds a generic JSON value tree whose objects keep the
// order their keys appeared in the source document.
//
// Manifests give meaning to key order (the first matching "exports" key
// wins), so documents are decoded with Parse or FromYAML rather than into
// map[string]any. Marshal and ToYAML write the tree back out in the same
// order.
//
//	v, err := jsonvalue.Parse(data)
//	if err != nil {
//	    return err
//	}
//	obj, _ := jsonvalue.AsObject(v)
//	for _, key := range obj.Keys() {
//	    // document order
//	}
package jsonvalue
