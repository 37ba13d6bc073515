package icm

import "fmt"

// GetClientScript returns the browser script that keeps a page's container
// in sync with the dev server at origin (e.g. "http://localhost:10000").
func GetClientScript(origin string) string {
	return fmt.Sprintf(clientScriptFmt, origin, ContainerElementID, ContainerTagName)
}

// GetClientScriptTag wraps GetClientScript in a script element. It returns
// an empty string outside dev mode.
func GetClientScriptTag(port int) string {
	if !GetIsDev() {
		return ""
	}
	return "\n<script>\n" + GetClientScript(fmt.Sprintf("http://localhost:%d", port)) + "\n</script>"
}

// The container's innerHTML is replaced wholesale on every message.
const clientScriptFmt = `
(function () {
	const origin = %q;

	function container() {
		let el = document.getElementById(%q);
		if (!el) {
			el = document.createElement(%q);
			el.id = %[2]q;
			document.head.appendChild(el);
		}
		return el;
	}

	function apply(data) {
		const { markup } = JSON.parse(data);
		container().innerHTML = markup;
	}

	if (window.EventSource) {
		const es = new EventSource(origin + "/events");
		es.onmessage = (e) => apply(e.data);
		es.addEventListener("error", (e) => {
			console.log("CSS MODULES DEV: SSE error", e);
		});
		window.addEventListener("beforeunload", () => es.close());
		return;
	}

	const ws = new WebSocket(origin.replace(/^http/, "ws") + "/ws");
	ws.onmessage = (e) => apply(e.data);
	ws.onclose = () => console.log("CSS MODULES DEV: websocket closed");
	window.addEventListener("beforeunload", () => ws.close());
})();
`
