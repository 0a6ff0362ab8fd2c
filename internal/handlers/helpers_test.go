package handlers_test

const profileFieldList = `
elements.phone.name = "userprofile_phone"
elements.phone.type = "tel"
elements.phone.options.label = "Phone"
elements.phone.attributes.required = true

elements.org.name = "userprofile_org"
elements.org.type = "select"
elements.org.options.label = "Organisation"
elements.org.options.value_options.alpha = "Alpha"
elements.org.options.value_options.beta = "Beta"

elements.notes.name = "userprofile_notes"
elements.notes.type = "textarea"
elements.notes.options.label = "Internal notes"

exclude.public_edit[] = userprofile_notes
exclude.public_show[] = userprofile_notes
`
