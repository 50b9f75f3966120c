package rewrite

import (
	"regexp"
	"strings"

	"github.com/minios-linux/hanlift/scan"
)

var (
	// importStmtRe matches one import statement, including multi-line
	// named imports and side-effect imports, up to its module string and
	// optional semicolon.
	importStmtRe = regexp.MustCompile(`(?m)^import\s[^;]*?['"][^'"\n]*['"][ \t]*;?`)

	// componentRe matches the body opener of the first function component:
	//
	//	const Foo: React.FC = () => {
	//	const Foo = ({ a }: Props) => {
	//	function Foo(props) {
	//	export default function () {
	componentRe = regexp.MustCompile(
		`const\s+[A-Z][\w$]*\s*(?::\s*[\w.$]+(?:<[^>]*>)?\s*)?=\s*\([^)]*\)\s*(?::\s*[^=]+?)?=>\s*\{` +
			`|function\s+[A-Z][\w$]*\s*\([^)]*\)\s*(?::\s*[^{]+?)?\{` +
			`|export\s+default\s+function\s*\([^)]*\)\s*\{`)
)

// ident matches name as a whole JavaScript identifier.
func ident(name string) string {
	return `(?:^|[^\w$])` + regexp.QuoteMeta(name) + `(?:[^\w$]|$)`
}

func hasImport(text string, opts Options) bool {
	re := regexp.MustCompile(`(?m)^import\b[^;]*?` + ident(opts.Hook) +
		`[^;]*?from\s*['"]` + regexp.QuoteMeta(opts.Module) + `['"]`)
	return re.MatchString(text)
}

func importLine(opts Options) string {
	return "import { " + opts.Hook + " } from '" + opts.Module + "';"
}

// addImport inserts the hook import after the last import statement, or at
// the top of the file when there is none.
func addImport(text string, opts Options) string {
	all := importStmtRe.FindAllStringIndex(text, -1)
	if len(all) == 0 {
		return importLine(opts) + "\n\n" + text
	}
	end := all[len(all)-1][1]
	return text[:end] + "\n" + importLine(opts) + text[end:]
}

// hasDeclaration reports whether the accessor is destructured from a hook
// call, as in "const { t } = useTranslation()" or
// "const { i18n, t } = useTranslation('ns')".
func hasDeclaration(text string, opts Options) bool {
	re := regexp.MustCompile(`(?:const|let|var)\s*\{([^}]*)\}\s*=\s*` + regexp.QuoteMeta(opts.Hook) + `\s*\(`)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			name := part
			if i := strings.IndexByte(part, ':'); i >= 0 {
				name = part[i+1:]
			}
			if strings.TrimSpace(name) == opts.Func {
				return true
			}
		}
	}
	return false
}

// addDeclaration inserts the accessor declaration at the top of the first
// component body. Comments are ignored when looking for the component. It
// reports false when no component is found.
func addDeclaration(text string, opts Options) (string, bool) {
	st := scan.Strip(text)
	m := componentRe.FindStringIndex(st.Text)
	if m == nil {
		return text, false
	}
	_, at := st.SpanToOriginal(m[0], m[1])
	decl := "\n  const { " + opts.Func + " } = " + opts.Hook + "();\n"
	return text[:at] + decl + text[at:], true
}
