package book

// DefaultCSS is the stylesheet bundled into the book when the config does
// not supply one. Kept deliberately plain: e-ink renderers ignore most of
// what a browser would honor, so the rules stick to borders, weights and
// sizes.
const DefaultCSS = `body { font-family: serif; line-height: 1.5; margin: 0.5em; color: #111; }
h1 { font-size: 1.5em; margin: 0.7em 0 0.5em; }
h2 { font-size: 1.2em; margin: 0.8em 0 0.4em; }
.subtitle { font-style: italic; color: #444; margin-top: 0; }
table.periodic-grid { border-collapse: collapse; width: 100%; font-size: 0.55em; }
.periodic-grid th, .periodic-grid td { border: 1px solid #999; padding: 0.1em; text-align: center; vertical-align: middle; }
.periodic-grid th { background: #eee; }
.periodic-grid td .atomic-number { font-size: 0.8em; text-align: left; color: #555; }
.periodic-grid td .symbol { font-weight: bold; }
.periodic-grid a { text-decoration: none; color: inherit; }
dl.element-meta dt { font-weight: bold; }
dl.element-meta dd { margin: 0 0 0.4em 0; }
section.summary { margin: 1em 0; }
ol.element-list { padding-left: 1.6em; }
.source, .license { font-size: 0.9em; color: #555; }
section#cover { text-align: center; }
section#cover img { max-width: 100%; }
`
