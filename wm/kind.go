// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import "fmt"

// Kind is a widget type. The numeric values are internal; the names
// are the wire contract — they appear in ctl commands and in widget
// type files.
type Kind uint16

// The widget vocabulary. Layout kinds wrap other widgets, interactive
// kinds generate events, display kinds only render. A registry accepts
// any of these in "widget <type>" ctl commands; renderers are free to
// draw unfamiliar kinds as plain boxes.
const (
	KindUnknown Kind = iota

	// Layout and structure.
	KindApp
	KindWindow
	KindContainer
	KindBox
	KindRow
	KindColumn
	KindCenter
	KindFlex
	KindGrid
	KindForm
	KindSpacer
	KindScroll
	KindScrollView
	KindSplitter
	KindPanel
	KindFrame
	KindGroup
	KindCard
	KindModal
	KindDialog
	KindDrawer
	KindOverlay
	KindTooltip
	KindPopover
	KindMenu
	KindMenuBar
	KindMenuItem
	KindContextMenu
	KindToolbar
	KindStatusBar
	KindSidebar
	KindTabBar
	KindTab
	KindTabPanel
	KindTabContent
	KindAccordion
	KindCollapse
	KindList
	KindListItem
	KindTable
	KindTableRow
	KindTableCell
	KindTree
	KindTreeItem

	// Interactive.
	KindButton
	KindIconButton
	KindToggleButton
	KindLink
	KindCheckbox
	KindRadioButton
	KindRadioGroup
	KindSwitch
	KindSlider
	KindRange
	KindDropdown
	KindSelect
	KindComboBox
	KindTextInput
	KindInput
	KindTextArea
	KindSearchInput
	KindNumberInput
	KindPasswordInput
	KindDatePicker
	KindTimePicker
	KindColorPicker
	KindFilePicker
	KindSpinner
	KindStepper

	// Display.
	KindLabel
	KindText
	KindHeading
	KindParagraph
	KindSpan
	KindCode
	KindPre
	KindImage
	KindIcon
	KindAvatar
	KindBadge
	KindChip
	KindTag
	KindDivider
	KindSeparator
	KindProgressBar
	KindProgressRing
	KindMeter
	KindGauge
	KindCanvas
	KindVideo
	KindAudio
	KindChart
	KindSparkline
	KindCalendar
	KindMarkdown
	KindEmbed
)

// kindNames maps kinds to their canonical names. Initialized once;
// the reverse map is derived from it.
var kindNames = map[Kind]string{
	KindApp:           "app",
	KindWindow:        "window",
	KindContainer:     "container",
	KindBox:           "box",
	KindRow:           "row",
	KindColumn:        "column",
	KindCenter:        "center",
	KindFlex:          "flex",
	KindGrid:          "grid",
	KindForm:          "form",
	KindSpacer:        "spacer",
	KindScroll:        "scroll",
	KindScrollView:    "scrollview",
	KindSplitter:      "splitter",
	KindPanel:         "panel",
	KindFrame:         "frame",
	KindGroup:         "group",
	KindCard:          "card",
	KindModal:         "modal",
	KindDialog:        "dialog",
	KindDrawer:        "drawer",
	KindOverlay:       "overlay",
	KindTooltip:       "tooltip",
	KindPopover:       "popover",
	KindMenu:          "menu",
	KindMenuBar:       "menubar",
	KindMenuItem:      "menuitem",
	KindContextMenu:   "contextmenu",
	KindToolbar:       "toolbar",
	KindStatusBar:     "statusbar",
	KindSidebar:       "sidebar",
	KindTabBar:        "tabbar",
	KindTab:           "tab",
	KindTabPanel:      "tabpanel",
	KindTabContent:    "tabcontent",
	KindAccordion:     "accordion",
	KindCollapse:      "collapse",
	KindList:          "list",
	KindListItem:      "listitem",
	KindTable:         "table",
	KindTableRow:      "tablerow",
	KindTableCell:     "tablecell",
	KindTree:          "tree",
	KindTreeItem:      "treeitem",
	KindButton:        "button",
	KindIconButton:    "iconbutton",
	KindToggleButton:  "togglebutton",
	KindLink:          "link",
	KindCheckbox:      "checkbox",
	KindRadioButton:   "radiobutton",
	KindRadioGroup:    "radiogroup",
	KindSwitch:        "switch",
	KindSlider:        "slider",
	KindRange:         "range",
	KindDropdown:      "dropdown",
	KindSelect:        "select",
	KindComboBox:      "combobox",
	KindTextInput:     "textinput",
	KindInput:         "input",
	KindTextArea:      "textarea",
	KindSearchInput:   "searchinput",
	KindNumberInput:   "numberinput",
	KindPasswordInput: "passwordinput",
	KindDatePicker:    "datepicker",
	KindTimePicker:    "timepicker",
	KindColorPicker:   "colorpicker",
	KindFilePicker:    "filepicker",
	KindSpinner:       "spinner",
	KindStepper:       "stepper",
	KindLabel:         "label",
	KindText:          "text",
	KindHeading:       "heading",
	KindParagraph:     "paragraph",
	KindSpan:          "span",
	KindCode:          "code",
	KindPre:           "pre",
	KindImage:         "image",
	KindIcon:          "icon",
	KindAvatar:        "avatar",
	KindBadge:         "badge",
	KindChip:          "chip",
	KindTag:           "tag",
	KindDivider:       "divider",
	KindSeparator:     "separator",
	KindProgressBar:   "progressbar",
	KindProgressRing:  "progressring",
	KindMeter:         "meter",
	KindGauge:         "gauge",
	KindCanvas:        "canvas",
	KindVideo:         "video",
	KindAudio:         "audio",
	KindChart:         "chart",
	KindSparkline:     "sparkline",
	KindCalendar:      "calendar",
	KindMarkdown:      "markdown",
	KindEmbed:         "embed",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for kind, name := range kindNames {
		m[name] = kind
	}
	return m
}()

// String returns the canonical widget type name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind resolves a widget type name.
func ParseKind(name string) (Kind, error) {
	if kind, ok := kindsByName[name]; ok {
		return kind, nil
	}
	return KindUnknown, fmt.Errorf("unknown widget type %q", name)
}
