package sfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_BasicSFC(t *testing.T) {
	source := `<template>
  <div class="greeting">{{ msg }}</div>
</template>

<script setup>
const msg = 'hello'
</script>

<style>
.greeting { color: green; }
</style>`

	blocks := NewExtractor().Extract(source)

	assert.True(t, blocks.HasTemplate())
	assert.Contains(t, blocks.Template, `<div class="greeting">{{ msg }}</div>`)
	assert.Equal(t, "const msg = 'hello'", blocks.ScriptSetup)
	assert.Equal(t, ".greeting { color: green; }", blocks.Style)
	assert.Empty(t, blocks.Script)
}

func TestExtract_NestedTemplates(t *testing.T) {
	source := `<template>
  <div>
    <template v-if="ready">
      <p>inner</p>
    </template>
  </div>
</template>
<script setup>const ready = true</script>`

	blocks := NewExtractor().Extract(source)

	assert.True(t, blocks.HasTemplate())
	assert.Contains(t, blocks.Template, `<template v-if="ready">`)
	assert.Contains(t, blocks.Template, "</template>")
	assert.Contains(t, blocks.Template, "<p>inner</p>")
}

func TestExtract_OptionsAPI(t *testing.T) {
	source := `<template><button @click="inc">{{ count }}</button></template>
<script>
export default {
  data() { return { count: 0 } },
  methods: { inc() { this.count++ } }
}
</script>`

	blocks := NewExtractor().Extract(source)

	assert.True(t, blocks.HasTemplate())
	assert.Empty(t, blocks.ScriptSetup)
	assert.Contains(t, blocks.Script, "export default {")
}

func TestExtract_SetupAndPlainScript(t *testing.T) {
	source := `<script>const shared = 1</script>
<template><p>{{ n }}</p></template>
<script setup>const n = 2</script>`

	blocks := NewExtractor().Extract(source)

	assert.Equal(t, "const n = 2", blocks.ScriptSetup)
	assert.Equal(t, "const shared = 1", blocks.Script)
}

func TestExtract_MissingTemplate(t *testing.T) {
	blocks := NewExtractor().Extract(`<script setup>const a = 1</script>`)

	assert.False(t, blocks.HasTemplate())
	assert.Equal(t, "const a = 1", blocks.ScriptSetup)
}

func TestExtract_MalformedNeverPanics(t *testing.T) {
	malformed := []string{
		"",
		"<template>",
		"<template><template></template>",
		"</template>",
		"<script setup>",
		"<style>body{",
		"not an sfc at all",
	}
	for _, src := range malformed {
		assert.NotPanics(t, func() {
			_ = NewExtractor().Extract(src)
		}, "source %q", src)
	}
}

func TestExtract_RegexFallbackOnUnbalancedInnerTag(t *testing.T) {
	// The inner <template is never closed, so the depth scanner fails;
	// the lazy regex fallback still recovers a usable template body.
	source := "<template><div><template v-if=\"x\"><p>a</p></div></template><script setup>const x=1</script>"

	blocks := NewExtractor().Extract(source)
	assert.True(t, blocks.HasTemplate())
}

func TestTopLevelBindings(t *testing.T) {
	script := `import { ref, computed } from 'vue'
const count = ref(0)
let label = 'clicks'
var legacy = true
function increment() { count.value++ }
async function load() {}
const count = ref(0)`

	names := TopLevelBindings(script)
	assert.Equal(t, []string{"count", "label", "legacy", "increment", "load"}, names)
}

func TestTopLevelBindings_Empty(t *testing.T) {
	assert.Empty(t, TopLevelBindings(""))
	assert.Empty(t, TopLevelBindings("// just a comment"))
}

func TestStripMacros(t *testing.T) {
	script := `interface Props { title: string }
const props = defineProps<Props>()
const emit = defineEmits<{ (e: 'save'): void }>()
const n: number = 1
const el = target as HTMLElement`

	stripped := StripMacros(script)

	assert.NotContains(t, stripped, "interface Props")
	assert.Contains(t, stripped, "defineProps()")
	assert.Contains(t, stripped, "defineEmits()")
	assert.NotContains(t, stripped, ": number")
	assert.NotContains(t, stripped, "as HTMLElement")
}
