// Package form holds the connect form's values, its validation rules and the
// conversion of validated values into a node address.
//
// Validation is a rule table evaluated per field; each field reports at most
// its first failing rule:
//
//	errs := form.Validate(values)
//	if !errs.Empty() {
//	    // render errs[form.FieldIPAddress] etc. inline
//	}
//	addr, nickname, err := form.BuildRequest(values)
package form
