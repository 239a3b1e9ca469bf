package tray

import "fyne.io/fyne/v2"

// SVGContent is the tray icon: a dashed selection frame with corner marks.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="3" y="3" width="10" height="10" fill="none" stroke="#1677ff" stroke-width="1.5" stroke-dasharray="2,1"/>
  <path d="M1 4V1h3M12 1h3v3M15 12v3h-3M4 15H1v-3" fill="none" stroke="#333333" stroke-width="1.2"/>
  <circle cx="8" cy="8" r="1.5" fill="#1677ff"/>
</svg>`

// Icon is the tray and app icon.
var Icon = fyne.NewStaticResource("xshot.svg", []byte(SVGContent))
