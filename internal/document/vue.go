package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/compvault/compvault/internal/sfc"
	"github.com/compvault/compvault/internal/types"
)

const vueCDNURL = "https://unpkg.com/vue@3.4.27/dist/vue.global.prod.js"

var extractor = sfc.NewExtractor()

// buildVueDocument renders an SFC through the inline interpreter: the
// host extracts the blocks (string scanning, see the sfc package) and the
// document reconstructs a component at runtime, executing the script
// setup body as a synthesized function whose free variables come from an
// explicit capability object — never from ambient scope.
func buildVueDocument(files []types.SourceFile, opts Options) string {
	main, ok := primaryVueFile(files)
	if !ok {
		return panelDocument(opts, UnavailableMarker, "no Vue component file found in this version", "")
	}

	blocks := extractor.Extract(main.Code)
	if !blocks.HasTemplate() {
		body := errorPanel("Template block not found: a Vue component needs a <template> section.", main.Code)
		return htmlDocument(opts, "", body)
	}

	setup := sfc.StripMacros(blocks.ScriptSetup)
	setup = stripImportLines(setup)
	bindings := sfc.TopLevelBindings(setup)

	options := ""
	if strings.Contains(blocks.Script, "export default") {
		options = strings.Replace(stripImportLines(blocks.Script), "export default", "return", 1)
	}

	var head strings.Builder
	if blocks.Style != "" {
		fmt.Fprintf(&head, "<style>\n%s\n</style>\n", blocks.Style)
	}
	if css := concatCSS(files); css != "" {
		fmt.Fprintf(&head, "<style>\n%s\n</style>\n", css)
	}
	head.WriteString(bridgeTag)
	head.WriteString("\n")
	fmt.Fprintf(&head, "<script src=%q></script>", vueCDNURL)

	var body strings.Builder
	body.WriteString(`<div id="app"></div>`)
	body.WriteString("\n<script>\n")
	fmt.Fprintf(&body, "var __vueTemplate = %s;\n", jsString(blocks.Template))
	fmt.Fprintf(&body, "var __vueSetupSource = %s;\n", jsString(setup))
	fmt.Fprintf(&body, "var __vueOptionsSource = %s;\n", jsString(options))
	fmt.Fprintf(&body, "var __vueBindings = %s;\n", jsString(strings.Join(bindings, ", ")))
	body.WriteString(vueBootstrapScript)
	body.WriteString("\n</script>")

	return htmlDocument(opts, head.String(), body.String())
}

// vueBootstrapScript reconstructs and mounts the component. The setup
// shim supplies the composition-API surface through a capability object
// passed by value into the synthesized function; router-link is stubbed
// so a pasted router-dependent component degrades to a visible anchor
// instead of a hard crash.
const vueBootstrapScript = `(function () {
  try {
    var component = {};
    if (__vueOptionsSource) {
      component = new Function(__vueOptionsSource)() || {};
    }
    component.template = __vueTemplate;
    if (__vueSetupSource) {
      var returns = "\nreturn { " + __vueBindings + " };";
      var preamble =
        "var ref = __ctx.ref, reactive = __ctx.reactive, computed = __ctx.computed, " +
        "watch = __ctx.watch, watchEffect = __ctx.watchEffect, " +
        "onMounted = __ctx.onMounted, onBeforeMount = __ctx.onBeforeMount, " +
        "onUnmounted = __ctx.onUnmounted, onBeforeUnmount = __ctx.onBeforeUnmount, " +
        "onUpdated = __ctx.onUpdated, nextTick = __ctx.nextTick, " +
        "defineProps = __ctx.defineProps, defineEmits = __ctx.defineEmits, " +
        "defineExpose = __ctx.defineExpose;\n";
      var setupFn = new Function("__ctx", preamble + __vueSetupSource + returns);
      component.setup = function () {
        var ctx = {
          ref: Vue.ref, reactive: Vue.reactive, computed: Vue.computed,
          watch: Vue.watch, watchEffect: Vue.watchEffect,
          onMounted: Vue.onMounted, onBeforeMount: Vue.onBeforeMount,
          onUnmounted: Vue.onUnmounted, onBeforeUnmount: Vue.onBeforeUnmount,
          onUpdated: Vue.onUpdated, nextTick: Vue.nextTick,
          defineProps: function () { return {}; },
          defineEmits: function () { return function () {}; },
          defineExpose: function () {}
        };
        return setupFn(ctx);
      };
    }
    var app = Vue.createApp(component);
    app.config.errorHandler = function (err) { window.__previewShowError(err); };
    app.component("router-link", {
      props: ["to"],
      template: "<a href=\"#\"><slot></slot></a>"
    });
    app.mount("#app");
  } catch (err) {
    window.__previewShowError(err);
  }
})();`

var importLinePattern = regexp.MustCompile(`(?m)^[ \t]*import\s[^\n]*$`)

// stripImportLines removes import statements from a script block: the
// interpreter context supplies the Vue primitives and new Function bodies
// cannot contain import declarations.
func stripImportLines(script string) string {
	return strings.TrimSpace(importLinePattern.ReplaceAllString(script, ""))
}

func primaryVueFile(files []types.SourceFile) (types.SourceFile, bool) {
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f.Filename), ".vue") || f.Language == types.LangVue {
			return f, true
		}
	}
	return types.SourceFile{}, false
}
